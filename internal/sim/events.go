package sim

// StateChange notifies one behaviour transition.
type StateChange struct {
	AgentID int
	Label   string
	From    AgentState
	To      AgentState
	Tick    int
}

// Death notifies that an agent reached the terminal state.
type Death struct {
	AgentID int
	Label   string
	Pos     Vec3
	Tick    int
}

// EventSink receives every sim log entry as it is recorded. Sinks must not
// touch sim state; the recorder, the metrics counters and the websocket
// feed all hang off this.
type EventSink interface {
	HandleSimEvent(e SimLogEntry)
}
