package redis

// ViewMode is the map rendering mode a client last announced. Persisted
// under a fixed per-user key so a reload resumes where it left off, and
// broadcast on a pub/sub channel so unrelated layout components can react.
type ViewMode string

const (
	ViewModeNone     ViewMode = "none"
	ViewModeOverview ViewMode = "overview"
	ViewModeZoomed   ViewMode = "zoomed"
)

// Valid reports whether s names a known view mode.
func (m ViewMode) Valid() bool {
	switch m {
	case ViewModeNone, ViewModeOverview, ViewModeZoomed:
		return true
	}
	return false
}

// ViewModeEvent is the payload published on every transition.
type ViewModeEvent struct {
	Username string   `json:"username"`
	Mode     ViewMode `json:"mode"`
}
