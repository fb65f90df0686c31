package render

import "html/template"

// View is the rendered state of the whole page.
type View struct {
	Empty     bool          `json:"empty"`
	Day       int           `json:"day"`
	Treasury  TreasuryView  `json:"treasury"`
	Cards     []Card        `json:"cards"`
	CardsHTML template.HTML `json:"cards_html"`
}

// Card is one tile of the conversation grid.
type Card struct {
	Index int    `json:"index"`
	Title string `json:"title"`
	Meta  string `json:"meta"`
}

// TreasuryView feeds the balance, progress and ledger widgets.
type TreasuryView struct {
	Headline    string      `json:"headline"`
	Tooltip     string      `json:"tooltip,omitempty"`
	Source      string      `json:"source"`
	HasProgress bool        `json:"has_progress"`
	Progress    string      `json:"progress,omitempty"`
	Ledger      *LedgerView `json:"ledger,omitempty"`
}

// LedgerView is the spent / revenue / net row.
type LedgerView struct {
	Spent    string `json:"spent"`
	Revenue  string `json:"revenue"`
	Net      string `json:"net"`
	NetClass string `json:"net_class"`
}

// ModalView is the detail overlay for one conversation.
type ModalView struct {
	Index        int           `json:"index"`
	Title        string        `json:"title"`
	Meta         string        `json:"meta"`
	Messages     []MessageView `json:"messages"`
	MessagesHTML template.HTML `json:"messages_html"`
}

// MessageView is one transcript entry.
type MessageView struct {
	Class   string        `json:"class"`
	Label   string        `json:"label"`
	Content template.HTML `json:"content"`
}

// Headline sources, in precedence order.
const (
	SourceCurrentValue = "current_value"
	SourceBalance      = "balance"
	SourceConversation = "conversation"
	SourceDefault      = "default"
)
