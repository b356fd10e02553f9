package grid

// DefaultTolerance bounds floating-point comparison against reserved marker
// values. Cell values arrive from JSON as floats, so raw equality would
// silently misclassify markers hit by representation error.
const DefaultTolerance = 1e-6

// Kind classifies a cell value once it has been matched against a Vocabulary.
type Kind int

const (
	// KindTerrain is any passable cell with no special role.
	KindTerrain Kind = iota
	// KindBlocked is impassable terrain.
	KindBlocked
	// KindStart marks an agent start cell.
	KindStart
	// KindGoal marks a goal cell.
	KindGoal
)

func (k Kind) String() string {
	switch k {
	case KindBlocked:
		return "blocked"
	case KindStart:
		return "start"
	case KindGoal:
		return "goal"
	default:
		return "terrain"
	}
}

// Tag is the tagged interpretation of one raw cell value. For start and goal
// cells, Index is the marker's position in the vocabulary's declared order;
// it is -1 otherwise.
type Tag struct {
	Kind  Kind
	Index int
}

// Vocabulary names the reserved cell values of the legacy map format. The
// on-disk format overloads a single numeric field to mean terrain, blocked
// flag, agent start marker, goal marker, and (after planning) path marker, so
// all classification goes through here instead of scattered float comparisons.
type Vocabulary struct {
	StartMarkers []float64 `json:"start_markers"`
	GoalMarkers  []float64 `json:"goal_markers"`
	Blocked      float64   `json:"blocked"`
	Tolerance    float64   `json:"tolerance"`
}

// DefaultVocabulary returns the reserved values of the reference map format:
// starts {0.5, 0.6, 0.9}, goals {8.1, 8.4, 8.13}, blocked sentinel 3.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		StartMarkers: []float64{0.5, 0.6, 0.9},
		GoalMarkers:  []float64{8.1, 8.4, 8.13},
		Blocked:      3,
		Tolerance:    DefaultTolerance,
	}
}

// Classify maps a raw cell value to its tagged interpretation.
func (v Vocabulary) Classify(value float64) Tag {
	if approxEqual(value, v.Blocked, v.Tolerance) {
		return Tag{Kind: KindBlocked, Index: -1}
	}
	for i, m := range v.StartMarkers {
		if approxEqual(value, m, v.Tolerance) {
			return Tag{Kind: KindStart, Index: i}
		}
	}
	for i, m := range v.GoalMarkers {
		if approxEqual(value, m, v.Tolerance) {
			return Tag{Kind: KindGoal, Index: i}
		}
	}
	return Tag{Kind: KindTerrain, Index: -1}
}

// IsBlocked reports whether a raw cell value is the impassable sentinel.
func (v Vocabulary) IsBlocked(value float64) bool {
	return approxEqual(value, v.Blocked, v.Tolerance)
}

func approxEqual(a, b, tolerance float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tolerance
}
