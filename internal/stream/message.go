package stream

import (
	"github.com/san-kum/fricsim/internal/config"
	"github.com/san-kum/fricsim/internal/engine"
)

// Command is one inbound control message from a renderer client. Type
// selects the operation; the remaining fields carry its arguments.
type Command struct {
	// Type is one of configure, start, reset, adjust.
	Type string `json:"type"`

	// Params accompanies configure.
	Params *config.Params `json:"params,omitempty"`

	// Surface and Value accompany adjust: the surface kind and the new
	// kinetic coefficient.
	Surface string  `json:"surface,omitempty"`
	Value   float64 `json:"value,omitempty"`
}

// Event is one outbound message. Frames flow continuously while a run is
// in progress; a results event closes out every run, finished or stalled;
// error events answer rejected commands.
type Event struct {
	// Type is one of frame, results, error.
	Type string `json:"type"`

	Frame   *engine.Frame   `json:"frame,omitempty"`
	Results []engine.Result `json:"results,omitempty"`
	Error   string          `json:"error,omitempty"`
}
