package spatial

type DebugInfo struct {
	Levels       int      `json:"levels"`
	NodeCount    int      `json:"node_count"`
	SpriteCount  int      `json:"sprite_count"`
	SplitRatioH  float64  `json:"split_ratio_h"`
	SplitRatioV  float64  `json:"split_ratio_v"`
	Region       Region   `json:"region"`
	Occupancy    []uint32 `json:"occupancy"` // sprites per depth, root first
	MaxOccupancy uint32   `json:"max_occupancy"`
	MaxNode      NodeID   `json:"max_node"`
	LastProcess  Stats    `json:"last_process"`
}

type CollisionIndex interface {
	Add(s Sprite) (bool, error)
	UpdatePosition(s Sprite) error
	Remove(s Sprite) (bool, error)
	Process() ([]CollisionEvent, error)

	IsInitialized() bool
	Levels() int

	// debug stuff:
	DebugInfo() DebugInfo
	Verify() error
}

var _ CollisionIndex = (*Index)(nil)
