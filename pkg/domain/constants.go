package domain

// TerminalNodeID is the reserved target that ends a playthrough.
// It never collides with author ids because the compiler rewrites dangling
// or "end" targets to it only when no node carries that id.
const TerminalNodeID = "__end__"

// DefaultProgressPrefix is the fixed key prefix of persisted progress entries.
// Changing it orphans previously saved sessions.
const DefaultProgressPrefix = "storyboard:progress"

// DefaultMeterMin and DefaultMeterMax bound meters that do not configure limits.
const (
	DefaultMeterMin = 0
	DefaultMeterMax = 100
)
