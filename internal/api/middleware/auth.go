package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	domainerrors "github.com/axiumai/chat-widget/internal/domain/errors"
	"github.com/axiumai/chat-widget/internal/services/widget"
)

const (
	// ConversationIDParam is the route parameter naming the conversation.
	ConversationIDParam = "conversationId"

	// TokenQueryParam carries the token for clients that cannot set headers (EventSource).
	TokenQueryParam = "token"

	conversationKey = "conversation"
)

// Authorizer checks a conversation token.
type Authorizer interface {
	Authorize(conversationID, token string) (*widget.Conversation, error)
}

// AuthMiddleware guards conversation routes with the per-conversation token.
type AuthMiddleware struct {
	authorizer Authorizer
}

// NewAuthMiddleware creates a new AuthMiddleware.
func NewAuthMiddleware(authorizer Authorizer) *AuthMiddleware {
	return &AuthMiddleware{authorizer: authorizer}
}

// Authenticate returns a gin middleware that accepts the token as a Bearer
// header or as the token query parameter, and stores the conversation in
// the context for downstream handlers.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractToken(c)
		if err != nil {
			HandleError(c, err)
			return
		}

		conv, err := m.authorizer.Authorize(c.Param(ConversationIDParam), token)
		if err != nil {
			HandleError(c, err)
			return
		}

		c.Set(conversationKey, conv)
		c.Next()
	}
}

// GetConversation retrieves the authorized conversation from the gin context.
func GetConversation(c *gin.Context) *widget.Conversation {
	if conv, exists := c.Get(conversationKey); exists {
		return conv.(*widget.Conversation)
	}
	return nil
}

func extractToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if token := c.Query(TokenQueryParam); token != "" {
			return token, nil
		}
		return "", domainerrors.NewUnauthorizedError("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", domainerrors.NewUnauthorizedError("invalid authorization header format")
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", domainerrors.NewUnauthorizedError("empty token")
	}
	return token, nil
}
