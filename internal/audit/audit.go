package audit

import "time"

// State is the terminal state of a recorded tool call.
type State string

const (
	StateCompleted State = "completed"
	StateTimedOut  State = "timed_out"
	StateCancelled State = "cancelled"
	// StateRejected marks calls whose arguments failed validation before
	// any query ran.
	StateRejected State = "rejected"
)

// Transport identifies how the call reached the server.
type Transport string

const (
	TransportStdio Transport = "stdio"
	TransportHTTP  Transport = "http"
	TransportCLI   Transport = "cli"
)

// Invocation is a single tool call record.
type Invocation struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Tool       string    `json:"tool"`
	State      State     `json:"state"`
	QueryCount int       `json:"queryCount"`
	HasResults int       `json:"hasResults"`
	Empty      int       `json:"empty"`
	Failed     int       `json:"failed"`
	DurationMS int64     `json:"durationMs"`
	Transport  Transport `json:"transport,omitempty"`
	Detail     string    `json:"detail,omitempty"`
}
