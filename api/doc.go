// Package api provides HTTP REST API handlers for the grid path planner.
//
// The api package implements:
//   - RESTful endpoints for planning and stepping operations
//   - Session management endpoints
//   - Map listing, loading, and saving
//   - WebSocket upgrade handling
//   - Static file serving
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create new session (body: {"map_id": "classic"})
//   - GET /api/sessions - List all sessions
//   - GET /api/sessions/{id} - Get specific session
//   - DELETE /api/sessions/{id} - Delete session
//
// Run Operations:
//   - GET /api/sessions/{id}/state - Current run state
//   - POST /api/sessions/{id}/plan - Discover agents, assign goals, plan and mark paths
//   - POST /api/sessions/{id}/step - Advance the run (body: {"ticks": 5})
//   - POST /api/sessions/{id}/reset - Restore the pristine map
//   - GET /api/sessions/{id}/export - Export the marked map document
//
// Maps:
//   - GET /api/maps - List available maps
//   - POST /api/maps - Save a map (body: map document plus "map_id")
//   - GET /api/maps/{name} - Get a map document
//
// Request/Response Format:
//
// All endpoints accept and return JSON. Errors are returned as JSON with
// appropriate HTTP status codes:
//
//	{
//	  "error": "error message"
//	}
//
// Usage:
//
//	server := api.NewServer(planService, hub)
//	http.ListenAndServe(":8080", server)
package api
