// Package render builds the viewer page from a store snapshot. Every
// function here is pure: the same state always yields the same output.
package render

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/zhouzirui/midas-viewer/internal/format"
	"github.com/zhouzirui/midas-viewer/internal/model/viewer"
	"github.com/zhouzirui/midas-viewer/internal/service/store"
)

const (
	emptyMessage  = "No conversations yet."
	defaultDay    = 1
	metaSeparator = " · "
	netPositive   = "positive"
	netNegative   = "negative"
)

// Renderer turns store state into views.
type Renderer struct {
	hint string
	loc  *time.Location
}

// New creates a renderer. hint is shown under the empty-state message.
func New(hint string, loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.Local
	}
	return &Renderer{hint: hint, loc: loc}
}

// EmptyState returns the markup shown when no conversations are available.
func (r *Renderer) EmptyState() template.HTML {
	var b strings.Builder
	b.WriteString(`<p class="empty">`)
	b.WriteString(emptyMessage)
	if r.hint != "" {
		b.WriteString("<br>")
		b.WriteString(format.EscapeText(r.hint))
	}
	b.WriteString("</p>")
	return template.HTML(b.String())
}

// Render builds the full page view.
func (r *Renderer) Render(state store.State) View {
	latest, hasLatest := state.Latest()
	view := View{
		Day:      defaultDay,
		Treasury: r.Treasury(state.Treasury, latest, hasLatest),
		Cards:    []Card{},
	}

	if !hasLatest {
		view.Empty = true
		view.CardsHTML = r.EmptyState()
		return view
	}

	if latest.Day != 0 {
		view.Day = latest.Day
	}

	var b strings.Builder
	for i, conv := range state.Conversations {
		card := r.card(i, conv)
		view.Cards = append(view.Cards, card)
		writeCard(&b, card)
	}
	view.CardsHTML = template.HTML(b.String())
	return view
}

func (r *Renderer) card(index int, conv viewer.Conversation) Card {
	meta := fmt.Sprintf("Day %d%s%d turns", conv.Day, metaSeparator, conv.TurnCount)
	if date, ok := format.FormatDate(conv.StartedAt, r.loc); ok {
		meta += metaSeparator + date
	}
	return Card{Index: index, Title: conv.Title(), Meta: meta}
}

func writeCard(b *strings.Builder, card Card) {
	idx := strconv.Itoa(card.Index)
	b.WriteString(`<div class="card" data-index="` + idx + `" onclick="openModal(` + idx + `)">`)
	b.WriteString(`<div class="card-title">` + format.EscapeText(card.Title) + `</div>`)
	b.WriteString(`<div class="card-meta">` + format.EscapeText(card.Meta) + `</div>`)
	b.WriteString(`</div>`)
}

// Treasury builds the balance widgets. The headline prefers the freshest
// live data: current_value, then a non-error wallet balance, then the
// latest conversation's embedded treasury, then the default.
func (r *Renderer) Treasury(snap *viewer.TreasurySnapshot, latest viewer.Conversation, hasLatest bool) TreasuryView {
	var tv TreasuryView

	switch {
	case snap != nil && snap.CurrentValue != nil && *snap.CurrentValue != 0:
		tv.Headline = format.FormatCurrency(*snap.CurrentValue)
		tv.Source = SourceCurrentValue
	case snap != nil && snap.Live():
		tv.Headline = format.FormatCurrency(snap.Balance.USD)
		tv.Tooltip = strconv.FormatFloat(snap.Balance.SOL, 'f', -1, 64) + " SOL"
		tv.Source = SourceBalance
	case hasLatest && latest.Treasury != nil && *latest.Treasury != 0:
		tv.Headline = format.FormatCurrency(*latest.Treasury)
		tv.Source = SourceConversation
	default:
		tv.Headline = format.FormatCurrency(viewer.DefaultTreasury)
		tv.Source = SourceDefault
	}

	if snap == nil {
		return tv
	}

	if snap.Progress != nil {
		tv.HasProgress = true
		tv.Progress = strconv.FormatFloat(*snap.Progress, 'f', -1, 64) + "%"
	}

	if l := snap.Ledger; l != nil {
		ledger := &LedgerView{
			Spent:   format.FormatSpent(l.TotalSpent),
			Revenue: format.FormatRevenue(l.TotalRevenue),
			Net:     format.FormatNet(l.NetChange),
		}
		switch {
		case l.NetChange > 0:
			ledger.NetClass = netPositive
		case l.NetChange < 0:
			ledger.NetClass = netNegative
		}
		tv.Ledger = ledger
	}
	return tv
}

// Modal builds the detail view for conversations[index]. It reports false
// when index is out of range.
func (r *Renderer) Modal(conversations []viewer.Conversation, index int) (ModalView, bool) {
	if index < 0 || index >= len(conversations) {
		return ModalView{}, false
	}
	conv := conversations[index]

	mv := ModalView{
		Index:    index,
		Title:    conv.Title(),
		Meta:     fmt.Sprintf("Day %d%sTreasury: %s", conv.Day, metaSeparator, format.FormatCurrency(conv.TreasuryOrDefault())),
		Messages: make([]MessageView, 0, len(conv.Messages)),
	}

	var b strings.Builder
	for _, msg := range conv.Messages {
		m := MessageView{
			Class:   msg.Agent.String(),
			Label:   msg.Agent.Label(),
			Content: template.HTML(format.FormatContent(msg.Content)),
		}
		mv.Messages = append(mv.Messages, m)

		b.WriteString(`<div class="msg ` + m.Class + `">`)
		b.WriteString(`<div class="msg-name">` + m.Label + `</div>`)
		b.WriteString(`<div class="msg-bubble"><div class="msg-text">` + string(m.Content) + `</div></div>`)
		b.WriteString(`</div>`)
	}
	mv.MessagesHTML = template.HTML(b.String())
	return mv, true
}

// Modals builds the detail view of every conversation, in list order.
func (r *Renderer) Modals(conversations []viewer.Conversation) []ModalView {
	views := make([]ModalView, 0, len(conversations))
	for i := range conversations {
		mv, _ := r.Modal(conversations, i)
		views = append(views, mv)
	}
	return views
}
