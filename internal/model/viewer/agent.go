package viewer

import (
	"encoding/json"
	"strings"
)

// Agent identifies who authored a message. The zero value is AgentUnknown.
type Agent uint8

const (
	AgentUnknown Agent = iota
	AgentClaude
	AgentMidas
)

// ParseAgent maps a raw agent tag onto the closed set of agents.
// "advisor" is the legacy name of the claude agent.
func ParseAgent(raw string) Agent {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "claude", "advisor":
		return AgentClaude
	case "midas":
		return AgentMidas
	default:
		return AgentUnknown
	}
}

// String returns the canonical tag, also used as the message CSS class.
func (a Agent) String() string {
	switch a {
	case AgentClaude:
		return "claude"
	case AgentMidas:
		return "midas"
	default:
		return "unknown"
	}
}

// Label is the speaker name shown above a message bubble.
func (a Agent) Label() string {
	if a == AgentMidas {
		return "Midas"
	}
	return "Claude"
}

// MarshalJSON encodes the canonical tag.
func (a Agent) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON normalizes the tag at the decoding boundary. Non-string
// values decode as AgentUnknown rather than failing the whole payload.
func (a *Agent) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		*a = AgentUnknown
		return nil
	}
	*a = ParseAgent(raw)
	return nil
}
