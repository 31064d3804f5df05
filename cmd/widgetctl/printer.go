package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/axiumai/chat-widget/internal/domain/models"
	"github.com/axiumai/chat-widget/internal/services/chat"
)

type styles struct {
	header    lipgloss.Style
	meta      lipgloss.Style
	assistant lipgloss.Style
	system    lipgloss.Style
	pill      lipgloss.Style
	fixture   lipgloss.Style
	errorText lipgloss.Style
}

// newStyles binds the palette to w so colors are dropped for non-terminals.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		header:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		meta:      r.NewStyle().Foreground(lipgloss.Color("243")),
		assistant: r.NewStyle().Foreground(lipgloss.Color("135")).Bold(true),
		system:    r.NewStyle().Foreground(lipgloss.Color("240")).Italic(true),
		pill:      r.NewStyle().Foreground(lipgloss.Color("39")).PaddingLeft(2),
		fixture:   r.NewStyle().Foreground(lipgloss.Color("42")).PaddingLeft(2),
		errorText: r.NewStyle().Foreground(lipgloss.Color("196")),
	}
}

// printer renders controller events as terminal lines.
type printer struct {
	mu      sync.Mutex
	w       io.Writer
	st      styles
	showRaw bool
}

func newPrinter(w io.Writer, showRaw bool) *printer {
	return &printer{w: w, st: newStyles(w), showRaw: showRaw}
}

// OnEvent implements chat.Observer.
func (p *printer) OnEvent(e chat.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch e.Type {
	case chat.EventMessage:
		if e.Message != nil {
			p.message(*e.Message)
		}
	case chat.EventTyping:
		if e.Typing {
			p.line(p.st.system.Render("assistant is typing..."))
		}
	case chat.EventState:
		p.line(p.st.system.Render("[" + string(e.State) + "]"))
	case chat.EventSession:
		p.line(p.st.meta.Render("session " + e.SessionID))
	case chat.EventReset:
		p.line(p.st.system.Render("conversation reset"))
	case chat.EventError:
		if e.Err != nil {
			p.line(p.st.errorText.Render("error: " + e.Err.Error()))
		}
	}
}

func (p *printer) message(m models.Message) {
	switch {
	case m.IsDivider():
		p.line(p.st.system.Render("---- new session ----"))
		return
	case m.Role == models.RoleUser:
		// Already on screen as typed input.
		return
	}

	r := models.Render(m)
	if r.DisplayText != "" {
		p.line(p.st.assistant.Render("assistant: ") + r.DisplayText)
	}
	for _, mt := range r.MarketTemplates {
		p.line(p.st.pill.Render(fmt.Sprintf("%s @ %s  %s", mt.BetDisplayNarrative, mt.Odds, mt.SportEventName)))
	}
	for _, f := range r.Fixtures {
		p.line(p.st.fixture.Render(fixtureLine(f)))
	}
	if p.showRaw && len(m.RawData) > 0 {
		p.line(p.st.meta.Render(string(m.RawData)))
	}
}

func (p *printer) status(snap chat.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	parts := []string{"state=" + string(snap.State)}
	if snap.SessionID != "" {
		parts = append(parts, "session="+snap.SessionID)
	}
	parts = append(parts, fmt.Sprintf("messages=%d", len(models.VisibleMessages(snap.Messages))))
	if snap.LastError != nil {
		parts = append(parts, "last_error="+snap.LastError.Error())
	}
	p.line(p.st.meta.Render(strings.Join(parts, " ")))
}

func (p *printer) line(s string) {
	fmt.Fprintln(p.w, s)
}

func fixtureLine(f models.Fixture) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s vs %s", f.HomeTeamName, f.AwayTeamName)
	if f.HomeScore != "" || f.AwayScore != "" {
		fmt.Fprintf(&b, " (%s-%s)", f.HomeScore, f.AwayScore)
	}
	if f.LeagueName != "" {
		fmt.Fprintf(&b, "  %s", f.LeagueName)
	}
	for _, bet := range f.Bets {
		fmt.Fprintf(&b, "  [%s %s]", bet.SelectionName, bet.Price)
	}
	return b.String()
}
