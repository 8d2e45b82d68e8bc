package featureflag

type Flag string

const (
	// Enumerates every pair of a subtree even when it holds a single sprite
	// and has no ancestor content.
	FlagDisableSubtreePruning Flag = "DISABLE_SUBTREE_PRUNING"

	// Stops publishing frame reports to stream subscribers.
	FlagDisableFrameStream Flag = "DISABLE_FRAME_STREAM"

	// Skips the index integrity check run with each log summary.
	FlagDisableIndexVerify Flag = "DISABLE_INDEX_VERIFY"
)
