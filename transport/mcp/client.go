package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gridrts/gridpath/nav/grid"
	"github.com/gridrts/gridpath/nav/service"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
	voc        grid.Vocabulary
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		voc: grid.DefaultVocabulary(),
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Grid Path Planner",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Grid Path Planner - MCP Interface

This is a thin client that proxies all requests to the REST API server.

SYSTEM OBJECTIVE:
Route every agent on a shared grid to a goal cell. Agents are discovered
from start markers, assigned goals, routed with shortest paths around
blocked cells, and stepped one cell per tick with collision avoidance.

AVAILABLE TOOLS:
- run_state: Get the current run state with an ASCII grid rendering
- plan_paths: Discover agents, assign goals, plan and mark paths
- step: Advance the run by some ticks - requires intent explanation
- reset_session: Restore the pristine map
- export_map: Export the path-marked map document
- create_session: Create new planning session
- get_session: Get session details
- list_sessions: List all active sessions
- list_maps: List available maps
- describe_cell: Get detailed info about a specific grid cell
- planner_instructions: Get comprehensive planner semantics

NOTE: The 'intent' parameter on the step tool serves as rubber duck debugging - explain your reasoning!`),
	)

	// Register all tools
	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new planning session with optional map selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"map_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the map to use (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active planning sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session ID to retrieve",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Run operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "run_state",
		Description: "Get the current run state",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session ID",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleRunState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "plan_paths",
		Description: "Discover agents and goals on the grid, assign goals, plan shortest paths, and mark them onto the grid",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session ID",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handlePlan)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "step",
		Description: "Advance the run by a number of ticks, moving every agent one cell per tick when its next cell is free",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session ID",
				},
				"ticks": map[string]interface{}{
					"type":        "integer",
					"description": "Number of ticks to advance (default 1)",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this step (serves as a rubber duck to help explain your reasoning)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleStep)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_session",
		Description: "Reset the session to the pristine map",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session ID",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "export_map",
		Description: "Export the current (path-marked) grid as a map document",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session ID",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleExportMap)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_maps",
		Description: "List available maps",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListMaps)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "planner_instructions",
		Description: "Get comprehensive planner semantics and usage instructions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handlePlannerInstructions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Get detailed information about a specific cell in the grid: its raw value, classification (terrain, blocked, agent start, goal), and whether the planner can traverse it.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session ID",
				},
				"row": map[string]interface{}{
					"type":        "integer",
					"description": "Row of the cell to describe (0-based)",
				},
				"col": map[string]interface{}{
					"type":        "integer",
					"description": "Column of the cell to describe (0-based)",
				},
			},
			Required: []string{"session_id", "row", "col"},
		},
	}, c.handleDescribeCell)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	mapID, _ := args["map_id"].(string)

	body := map[string]string{}
	if mapID != "" {
		body["map_id"] = mapID
	}

	var session service.SessionInfo
	err := c.apiCall("POST", "/api/sessions", body, &session)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nMap: %s\n", session.ID, session.MapID)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	err := c.apiCall("GET", "/api/sessions", nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		result += fmt.Sprintf("- %s (Map: %s, Created: %s)\n",
			s.ID, s.MapID, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)

	var session service.SessionInfo
	err := c.apiCall("GET", fmt.Sprintf("/api/sessions/%s", sessionID), nil, &session)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := c.formatSessionInfo(&session)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleRunState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)

	var state service.RunState
	err := c.apiCall("GET", fmt.Sprintf("/api/sessions/%s/state", sessionID), nil, &state)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := c.formatRunState(&state)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handlePlan(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)

	var result service.PlanResult
	err := c.apiCall("POST", fmt.Sprintf("/api/sessions/%s/plan", sessionID), nil, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	response := c.formatPlanResult(&result)
	return mcp.NewToolResultText(response), nil
}

func (c *Client) handleStep(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)
	intent, _ := args["intent"].(string)

	// Intent parameter serves as rubber duck debugging - we don't need to process it further
	_ = intent

	ticks := 1
	if t, ok := args["ticks"].(float64); ok && int(t) > 0 {
		ticks = int(t)
	}

	body := map[string]interface{}{
		"ticks": ticks,
	}

	var result service.StepResult
	err := c.apiCall("POST", fmt.Sprintf("/api/sessions/%s/step", sessionID), body, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	response := c.formatStepResult(&result)
	return mcp.NewToolResultText(response), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)

	var response struct {
		Message string            `json:"message"`
		State   *service.RunState `json:"state"`
	}

	err := c.apiCall("POST", fmt.Sprintf("/api/sessions/%s/reset", sessionID), nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("%s\n\n%s", response.Message, c.formatRunState(response.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleExportMap(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)

	var doc json.RawMessage
	err := c.apiCall("GET", fmt.Sprintf("/api/sessions/%s/export", sessionID), nil, &doc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(string(doc)), nil
}

func (c *Client) handleListMaps(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var maps []struct {
		MapID   string `json:"map_id"`
		Width   int    `json:"width"`
		Height  int    `json:"height"`
		Agents  int    `json:"agents"`
		Goals   int    `json:"goals"`
		Blocked int    `json:"blocked"`
	}
	err := c.apiCall("GET", "/api/maps", nil, &maps)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := "Available Maps:\n\n"
	for _, m := range maps {
		result += fmt.Sprintf("• %s\n  Grid: %dx%d, Agents: %d, Goals: %d, Blocked cells: %d\n\n",
			m.MapID, m.Width, m.Height, m.Agents, m.Goals, m.Blocked)
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handlePlannerInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Grid Path Planner - Complete Instructions

SYSTEM OBJECTIVE:
Route every agent on a shared grid to a goal cell without collisions.

RUN LIFECYCLE:
1. create_session - load a map into a fresh session
2. plan_paths - discover agents and goals, assign goals, plan and mark paths
3. step - advance the run tick by tick until all agents arrive
4. export_map - save the path-marked grid
5. reset_session - restore the pristine map to plan again

GRID VOCABULARY (cell values):
• 0.5, 0.6, 0.9 - Agent start markers (one agent per occurrence)
• 8.1, 8.4, 8.13 - Goal markers
• 3 - Blocked cell (impassable)
• anything else - Open terrain

Marker comparison uses a small tolerance, so 0.5000001 still reads as a
start marker.

ASCII LEGEND (as rendered by run_state):
• A - Agent current position
• a - Agent start marker (no agent currently standing there)
• G - Goal cell
• # - Blocked cell
• * - Path-marked cell (an agent's planned route)
• . - Open terrain

PLANNING SEMANTICS:
- Agents are discovered in marker order, then row-major order. Agent
  identity is a pure function of that order.
- When agent count equals goal count, goal[i] goes to agent[i]. Otherwise
  each agent takes the nearest goal by Manhattan distance (ties to the
  earliest goal); goals may be shared.
- Paths are 4-connected shortest paths around blocked cells. An
  unreachable goal leaves the agent pathless and idle.
- Marking writes each agent's marker along its path, except the goal
  cell, which keeps its goal value.

STEPPING SEMANTICS:
- One cell per tick per agent, following its planned path.
- An agent whose next cell is occupied waits in place. No replanning.
- Two agents whose paths cross head-on can wait on each other forever;
  the step tool reports livelocked=true when a tick ceiling is hit.

SESSION MANAGEMENT:
- Multiple sessions can run simultaneously
- Each session has a unique 4-character ID
- Sessions maintain independent grid and agent state

Use describe_cell to verify any cell's raw value and classification
before reasoning about routes.`

	return mcp.NewToolResultText(instructions), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)
	row := int(args["row"].(float64))
	col := int(args["col"].(float64))

	// Get the current run state to access the grid
	var state service.RunState
	err := c.apiCall("GET", fmt.Sprintf("/api/sessions/%s/state", sessionID), nil, &state)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if row < 0 || row >= state.Height || col < 0 || col >= state.Width {
		return mcp.NewToolResultError(fmt.Sprintf("Coordinates (%d, %d) are out of bounds. Grid size is %dx%d (rows 0-%d, cols 0-%d)",
			row, col, state.Width, state.Height, state.Height-1, state.Width-1)), nil
	}

	value := state.Cells[row*state.Width+col]
	tag := c.voc.Classify(value)

	var cellType, description string
	passable := true
	switch tag.Kind {
	case grid.KindBlocked:
		cellType = "Blocked"
		passable = false
		description = "Blocked cell - the planner routes around it"
	case grid.KindStart:
		cellType = "Agent start"
		description = fmt.Sprintf("Agent start marker (marker value %g); one agent is discovered here", value)
	case grid.KindGoal:
		cellType = "Goal"
		description = fmt.Sprintf("Goal marker (marker value %g); agents are routed toward goal cells", value)
	default:
		cellType = "Terrain"
		description = "Open terrain - freely traversable"
	}

	// Check for an agent currently standing on this cell
	occupant := ""
	for _, a := range state.Agents {
		if a.Pos.Row == row && a.Pos.Col == col {
			occupant = fmt.Sprintf("\nOccupied by: agent %d (marker %g)", a.ID, a.Marker)
			break
		}
	}

	result := fmt.Sprintf(`Cell at (row %d, col %d):
Value: %g
Type: %s
Passable: %v
Description: %s%s`,
		row, col, value, cellType, passable, description, occupant)

	return mcp.NewToolResultText(result), nil
}

// Formatting helpers

func (c *Client) formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nMap: %s\nCreated: %s\n\n%s",
		session.ID, session.MapID,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		c.formatRunState(session.RunState))
}

func (c *Client) formatRunState(state *service.RunState) string {
	if state == nil {
		return "No run state available"
	}

	var result strings.Builder

	status := "not planned"
	if state.Planned {
		status = "planned"
	}
	if state.AllArrived {
		status = "all arrived"
	}
	result.WriteString(fmt.Sprintf("Map: %s | Grid: %dx%d | Agents: %d | Goals: %d | Tick: %d | Status: %s\n\n",
		state.MapID, state.Width, state.Height, len(state.Agents), len(state.Goals), state.Tick, status))

	result.WriteString(c.renderGrid(state))

	if len(state.Agents) > 0 {
		result.WriteString("\nAgents:\n")
		for _, a := range state.Agents {
			line := fmt.Sprintf("- agent %d marker=%g at (%d,%d)", a.ID, a.Marker, a.Pos.Row, a.Pos.Col)
			if a.Goal != nil {
				line += fmt.Sprintf(" => goal (%d,%d)", a.Goal.Row, a.Goal.Col)
			} else {
				line += " => no goal"
			}
			if a.PathLength > 0 {
				line += fmt.Sprintf(" [path %d/%d]", a.PathIndex, a.PathLength-1)
			} else {
				line += " [no path]"
			}
			if a.Arrived {
				line += " ARRIVED"
			}
			result.WriteString(line + "\n")
		}
	}

	return result.String()
}

// renderGrid draws the run state as ASCII, one character per cell.
func (c *Client) renderGrid(state *service.RunState) string {
	occupied := make(map[grid.Point]bool, len(state.Agents))
	for _, a := range state.Agents {
		occupied[a.Pos] = true
	}

	var b strings.Builder
	for row := 0; row < state.Height; row++ {
		for col := 0; col < state.Width; col++ {
			p := grid.Point{Row: row, Col: col}
			if occupied[p] {
				b.WriteString("A")
				continue
			}
			value := state.Cells[row*state.Width+col]
			switch c.voc.Classify(value).Kind {
			case grid.KindBlocked:
				b.WriteString("#")
			case grid.KindStart:
				if state.Planned {
					// After marking, start-marker values on the grid are
					// path cells.
					b.WriteString("*")
				} else {
					b.WriteString("a")
				}
			case grid.KindGoal:
				b.WriteString("G")
			default:
				b.WriteString(".")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (c *Client) formatPlanResult(result *service.PlanResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Planned: %d agents, %d goals, %d assigned, %d routed\n",
		result.AgentCount, result.GoalCount, result.Assigned, result.Routed))

	unrouted := result.Assigned - result.Routed
	if unrouted > 0 {
		b.WriteString(fmt.Sprintf("%d agent(s) have unreachable goals and will stay idle\n", unrouted))
	}

	b.WriteString("\n")
	b.WriteString(c.formatRunState(result.RunState))
	return b.String()
}

func (c *Client) formatStepResult(result *service.StepResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Executed %d tick(s), cumulative tick %d\n", result.TicksExecuted, result.Tick))

	if result.AllArrived {
		b.WriteString("All agents arrived\n")
	} else if result.Livelocked {
		b.WriteString("Livelock detected: remaining agents are blocking each other\n")
	}

	b.WriteString("\n")
	b.WriteString(c.formatRunState(result.RunState))
	return b.String()
}
