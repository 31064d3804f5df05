package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeOutbound(t *testing.T) {
	data, err := EncodeOutbound(`say "hi"`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"say \"hi\""}`, string(data))
}

func TestParseInbound(t *testing.T) {
	tests := []struct {
		name     string
		frame    string
		wantID   string
		wantRole MessageRole
		wantText string
		wantComp int
	}{
		{
			name:     "text field",
			frame:    `{"id":"m1","role":"assistant","text":"Hello"}`,
			wantID:   "m1",
			wantRole: RoleAssistant,
			wantText: "Hello",
		},
		{
			name:     "message field",
			frame:    `{"message":"From message"}`,
			wantRole: RoleAssistant,
			wantText: "From message",
		},
		{
			name:     "text wins over message",
			frame:    `{"text":"a","message":"b"}`,
			wantRole: RoleAssistant,
			wantText: "a",
		},
		{
			name:     "numeric id",
			frame:    `{"id":42,"text":"x"}`,
			wantID:   "42",
			wantRole: RoleAssistant,
			wantText: "x",
		},
		{
			name:     "no text falls back to raw",
			frame:    `{"foo":"bar"}`,
			wantRole: RoleAssistant,
			wantText: `{"foo":"bar"}`,
		},
		{
			name:     "components without text",
			frame:    `{"components":[{"component":"market_template","odds":2.5}]}`,
			wantRole: RoleAssistant,
			wantText: "",
			wantComp: 1,
		},
		{
			name:     "empty message",
			frame:    `{"message":""}`,
			wantRole: RoleAssistant,
			wantText: "",
		},
		{
			name:     "null text",
			frame:    `{"text":null}`,
			wantRole: RoleAssistant,
			wantText: "",
		},
		{
			name:     "empty text falls through to message",
			frame:    `{"text":"","message":"later"}`,
			wantRole: RoleAssistant,
			wantText: "later",
		},
		{
			name:     "bare string",
			frame:    `"just text"`,
			wantRole: RoleAssistant,
			wantText: "just text",
		},
		{
			name:     "bare number",
			frame:    `12`,
			wantRole: RoleAssistant,
			wantText: "12",
		},
		{
			name:     "user role",
			frame:    `{"role":"user","text":"echo"}`,
			wantRole: RoleUser,
			wantText: "echo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := ParseInbound([]byte(tt.frame))
			require.NoError(t, err)

			assert.Equal(t, tt.wantID, msg.ID)
			assert.Equal(t, tt.wantRole, msg.Role)
			assert.Equal(t, tt.wantText, msg.Text)
			assert.Len(t, msg.Components, tt.wantComp)
			assert.JSONEq(t, tt.frame, string(msg.Raw))
		})
	}
}

func TestParseInbound_Invalid(t *testing.T) {
	for _, frame := range []string{"", "not json", `{"text":`} {
		_, err := ParseInbound([]byte(frame))
		assert.Error(t, err, frame)
	}
}

func TestInboundToMessage(t *testing.T) {
	t.Run("plain text keeps id and raw", func(t *testing.T) {
		in, err := ParseInbound([]byte(`{"id":"srv-1","text":"Hi"}`))
		require.NoError(t, err)

		msg := in.ToMessage()
		assert.Equal(t, "srv-1", msg.ID)
		assert.Equal(t, "Hi", msg.Text)
		assert.JSONEq(t, `{"id":"srv-1","text":"Hi"}`, string(msg.RawData))
	})

	t.Run("fixtures replace text", func(t *testing.T) {
		in, err := ParseInbound([]byte(`{"text":"Tonight","components":[{"component":"fixture_card","home_team_name":"A"}]}`))
		require.NoError(t, err)
		require.True(t, in.HasFixtures())

		msg := in.ToMessage()
		assert.Equal(t, FixturePlaceholder, msg.Text)
		assert.Regexp(t, messageIDPattern, msg.ID)
		assert.NotEmpty(t, msg.RawData)
	})

	t.Run("market templates keep text", func(t *testing.T) {
		in, err := ParseInbound([]byte(`{"text":"Try {market_template}","components":[{"component":"market_template"}]}`))
		require.NoError(t, err)
		assert.False(t, in.HasFixtures())
		assert.Equal(t, "Try {market_template}", in.ToMessage().Text)
	})
}

func TestFlexString(t *testing.T) {
	var v struct {
		A FlexString `json:"a"`
		B FlexString `json:"b"`
		C FlexString `json:"c"`
		D FlexString `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"1.85","b":2.1,"c":true,"d":null}`), &v))

	assert.Equal(t, "1.85", v.A.String())
	assert.Equal(t, "2.1", v.B.String())
	assert.Equal(t, "true", v.C.String())
	assert.Equal(t, "", v.D.String())

	f, err := v.B.Float()
	require.NoError(t, err)
	assert.InDelta(t, 2.1, f, 1e-9)

	_, err = v.C.Float()
	assert.Error(t, err)
}
