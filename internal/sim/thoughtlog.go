package sim

const thoughtLogCap = 24

// ThoughtEntry is a single line in an agent's thought log.
type ThoughtEntry struct {
	Tick    int
	Message string
}

// ThoughtLog is a small ring buffer of human-readable decisions, one per
// agent. The inspector panel shows it; nothing in the sim reads it back.
type ThoughtLog struct {
	entries []ThoughtEntry
	head    int
	count   int
}

// NewThoughtLog creates a thought log with a fixed capacity.
func NewThoughtLog() *ThoughtLog {
	return &ThoughtLog{entries: make([]ThoughtEntry, thoughtLogCap)}
}

// Add appends an entry, evicting the oldest once full.
func (tl *ThoughtLog) Add(tick int, msg string) {
	tl.entries[tl.head] = ThoughtEntry{Tick: tick, Message: msg}
	tl.head = (tl.head + 1) % thoughtLogCap
	if tl.count < thoughtLogCap {
		tl.count++
	}
}

// Recent returns entries in chronological order (oldest first).
func (tl *ThoughtLog) Recent() []ThoughtEntry {
	result := make([]ThoughtEntry, tl.count)
	for i := 0; i < tl.count; i++ {
		idx := (tl.head - tl.count + i + thoughtLogCap) % thoughtLogCap
		result[i] = tl.entries[idx]
	}
	return result
}
