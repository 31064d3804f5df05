package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/axiumai/chat-widget/internal/domain/models"
	"github.com/axiumai/chat-widget/internal/services/chat"
)

func TestPrinter_Events(t *testing.T) {
	var buf bytes.Buffer
	p := newPrinter(&buf, false)

	reply := models.NewMessage(models.RoleAssistant, "Try this {market_template}")
	reply.RawData = json.RawMessage(`{"components":[{"component":"market_template","odds":1.8,"sport_event_name":"A vs B","bet_display_narrative":"A to win"}]}`)

	p.OnEvent(chat.Event{Type: chat.EventSession, SessionID: "sess-1"})
	p.OnEvent(chat.Event{Type: chat.EventState, State: models.StateConnected})
	p.OnEvent(chat.Event{Type: chat.EventTyping, Typing: true})
	p.OnEvent(chat.Event{Type: chat.EventTyping, Typing: false})
	p.OnEvent(chat.Event{Type: chat.EventMessage, Message: models.NewMessage(models.RoleUser, "user text")})
	p.OnEvent(chat.Event{Type: chat.EventMessage, Message: reply})
	p.OnEvent(chat.Event{Type: chat.EventMessage, Message: models.NewDivider()})
	p.OnEvent(chat.Event{Type: chat.EventError, Err: errors.New("boom")})
	p.OnEvent(chat.Event{Type: chat.EventReset})

	out := buf.String()
	assert.Contains(t, out, "session sess-1")
	assert.Contains(t, out, "[connected]")
	assert.Contains(t, out, "assistant is typing...")
	assert.NotContains(t, out, "user text")
	assert.Contains(t, out, "Try this")
	assert.NotContains(t, out, "{market_template}")
	assert.Contains(t, out, "A to win @ 1.8  A vs B")
	assert.Contains(t, out, "new session")
	assert.Contains(t, out, "error: boom")
	assert.Contains(t, out, "conversation reset")
}

func TestPrinter_RawAndFixtures(t *testing.T) {
	var buf bytes.Buffer
	p := newPrinter(&buf, true)

	msg := models.NewMessage(models.RoleAssistant, models.FixturePlaceholder)
	msg.RawData = json.RawMessage(`{"components":[{"component":"fixture","league_name":"Premier","home_team_name":"A","away_team_name":"B","home_score":1,"away_score":"0","bets":[{"selection_name":"1","price":2}]}]}`)

	p.OnEvent(chat.Event{Type: chat.EventMessage, Message: msg})

	out := buf.String()
	assert.Contains(t, out, "A vs B (1-0)  Premier  [1 2]")
	assert.Contains(t, out, `"component":"fixture"`)
	assert.NotContains(t, out, "assistant:")
}
