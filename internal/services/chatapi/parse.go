package chatapi

import (
	"encoding/json"

	domainerrors "github.com/axiumai/chat-widget/internal/domain/errors"
	"github.com/axiumai/chat-widget/internal/domain/models"
)

// sessionPayload is the wire shape of a session descriptor.
type sessionPayload struct {
	SessionID      models.FlexString `json:"session_id"`
	WebsocketURL   string            `json:"websocket_url"`
	WebsocketToken string            `json:"websocket_token"`
	ExpiresIn      models.FlexString `json:"expires_in"`
}

// ParseSession extracts a session from an initiation response body. The
// descriptor may sit under data.data, under data, or at the root; the first
// of those objects that carries session_id wins.
func ParseSession(body []byte) (*models.Session, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, domainerrors.NewSessionParseError("response is not a JSON object", err)
	}

	for _, candidate := range candidates(root) {
		if _, ok := candidate["session_id"]; !ok {
			continue
		}

		raw, err := json.Marshal(candidate)
		if err != nil {
			return nil, domainerrors.NewSessionParseError("failed to re-encode session object", err)
		}
		var payload sessionPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, domainerrors.NewSessionParseError("malformed session fields", err)
		}
		if payload.SessionID == "" {
			continue
		}

		expiresIn := 0
		if v, err := payload.ExpiresIn.Float(); err == nil {
			expiresIn = int(v)
		}

		return models.NewSession(
			payload.SessionID.String(),
			payload.WebsocketURL,
			payload.WebsocketToken,
			expiresIn,
		), nil
	}

	return nil, domainerrors.NewSessionParseError("session_id not found", nil)
}

// candidates returns data.data, data and root, in that order, skipping
// levels that are missing or are not objects.
func candidates(root map[string]json.RawMessage) []map[string]json.RawMessage {
	var out []map[string]json.RawMessage

	data := asObject(root["data"])
	if data != nil {
		if nested := asObject(data["data"]); nested != nil {
			out = append(out, nested)
		}
		out = append(out, data)
	}
	return append(out, root)
}

func asObject(raw json.RawMessage) map[string]json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	return obj
}
