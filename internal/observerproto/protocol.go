// Package observerproto defines the wire messages of the observer protocol:
// a read-only JSON stream of per-tick simulation summaries.
package observerproto

// Version is the observer protocol version.
const Version = "1.0"

// Client -> Server. First message on the observer WS connection, and can be
// re-sent to update settings.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`

	// Optional: restrict the streamed per-tick values to these result names.
	// Empty means all.
	Results []string `json:"results,omitempty"`
}

// HTTP response for GET /v1/observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string    `json:"protocol_version"`
	Label           string    `json:"label"`
	Tick            int       `json:"tick"`
	SimParams       SimParams `json:"sim_params"`
	Results         []string  `json:"results"`
}

type SimParams struct {
	NAgents  int     `json:"n_agents"`
	NSteps   int     `json:"n_steps"`
	DT       float64 `json:"dt"`
	Seed     int64   `json:"seed"`
	PopScale float64 `json:"pop_scale"`
}

// Server -> Client. Sent every tick.
type TickMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            int    `json:"tick"`

	NAlive    int    `json:"n_alive"`
	NewDeaths int    `json:"new_deaths"`
	Digest    string `json:"digest"`

	Results map[string]float64 `json:"results,omitempty"`
}
