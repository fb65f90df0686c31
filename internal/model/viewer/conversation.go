package viewer

// Message is a single turn of a conversation transcript.
type Message struct {
	Agent   Agent  `json:"agent"`
	Content string `json:"content"`
}

// Conversation is one entry of the upstream conversation list. It has no
// stable id; its identity is its position in the fetched list.
type Conversation struct {
	Day       int       `json:"day"`
	Topic     string    `json:"topic,omitempty"`
	TurnCount int       `json:"turn_count,omitempty"`
	StartedAt string    `json:"started_at,omitempty"`
	Treasury  *float64  `json:"treasury,omitempty"`
	Messages  []Message `json:"messages"`
}

// DefaultTitle is used when a conversation carries no topic.
const DefaultTitle = "Conversation"

// DefaultTreasury is the balance shown when nothing better is known.
const DefaultTreasury = 1000.0

// Title returns the topic or DefaultTitle.
func (c Conversation) Title() string {
	if c.Topic == "" {
		return DefaultTitle
	}
	return c.Topic
}

// TreasuryOrDefault returns the embedded treasury value, falling back to
// DefaultTreasury when it is missing or zero.
func (c Conversation) TreasuryOrDefault() float64 {
	if c.Treasury == nil || *c.Treasury == 0 {
		return DefaultTreasury
	}
	return *c.Treasury
}
