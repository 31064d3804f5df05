package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/axiumai/chat-widget/internal/api/dto"
	"github.com/axiumai/chat-widget/internal/api/middleware"
	"github.com/axiumai/chat-widget/internal/api/sse"
	"github.com/axiumai/chat-widget/internal/core/eventbus"
	domainerrors "github.com/axiumai/chat-widget/internal/domain/errors"
	"github.com/axiumai/chat-widget/internal/services/chat"
	"github.com/axiumai/chat-widget/internal/services/widget"
)

// DefaultKeepAlive is the interval between SSE keep-alive comments.
const DefaultKeepAlive = 15 * time.Second

// ConversationService is what the conversation endpoints need from the
// widget service.
type ConversationService interface {
	Create(ctx context.Context) (*widget.Conversation, error)
	SendMessage(ctx context.Context, id, text string) (chat.Snapshot, error)
	Reset(id string) error
	Delete(id string) error
	Stream(ctx context.Context, id string) (eventbus.Subscription, error)
}

// ConversationsHandler handles conversation endpoints.
type ConversationsHandler struct {
	service   ConversationService
	keepAlive time.Duration
}

// NewConversationsHandler creates a new ConversationsHandler. A keepAlive
// <= 0 selects DefaultKeepAlive.
func NewConversationsHandler(service ConversationService, keepAlive time.Duration) *ConversationsHandler {
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	return &ConversationsHandler{
		service:   service,
		keepAlive: keepAlive,
	}
}

// CreateConversation handles POST /conversations
// @Summary Create conversation
// @Description Opens a conversation, initiates a chat session and returns the conversation token
// @Tags Conversations
// @Produce json
// @Success 201 {object} dto.CreateConversationResponse
// @Failure 502 {object} dto.ErrorResponse "Session initiation failed"
// @Failure 503 {object} dto.ErrorResponse "Conversation limit reached"
// @Router /api/v1/widget/conversations [post]
func (h *ConversationsHandler) CreateConversation(c *gin.Context) {
	conv, err := h.service.Create(c.Request.Context())
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	snap := conv.Controller.Snapshot()
	c.JSON(http.StatusCreated, dto.CreateConversationResponse{
		ConversationID: conv.ID,
		Token:          conv.Token(),
		SessionID:      snap.SessionID,
		State:          snap.State,
	})
}

// GetConversation handles GET /conversations/{conversationId}
// @Summary Get conversation
// @Description Returns the conversation state with rendered messages
// @Tags Conversations
// @Produce json
// @Param conversationId path string true "Conversation ID"
// @Success 200 {object} dto.ConversationResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/widget/conversations/{conversationId} [get]
func (h *ConversationsHandler) GetConversation(c *gin.Context) {
	conv := middleware.GetConversation(c)
	c.JSON(http.StatusOK, dto.NewConversationResponse(conv.ID, conv.CreatedAt, conv.Controller.Snapshot()))
}

// SendMessage handles POST /conversations/{conversationId}/messages
// @Summary Send message
// @Description Sends user text, reconnecting or recovering the session when needed
// @Tags Conversations
// @Accept json
// @Produce json
// @Param conversationId path string true "Conversation ID"
// @Param request body dto.SendMessageRequest true "Message"
// @Success 200 {object} dto.ConversationResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Conversation reset while sending"
// @Failure 502 {object} dto.ErrorResponse "Delivery and recovery failed"
// @Security BearerAuth
// @Router /api/v1/widget/conversations/{conversationId}/messages [post]
func (h *ConversationsHandler) SendMessage(c *gin.Context) {
	conv := middleware.GetConversation(c)

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, domainerrors.NewValidationError("invalid request body", err.Error()))
		return
	}

	snap, err := h.service.SendMessage(c.Request.Context(), conv.ID, req.Text)
	if errors.Is(err, chat.ErrConversationReset) {
		middleware.HandleError(c, domainerrors.NewConflictError("conversation was reset", conv.ID))
		return
	}
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewConversationResponse(conv.ID, conv.CreatedAt, snap))
}

// ResetConversation handles POST /conversations/{conversationId}/reset
// @Summary Reset conversation
// @Description Closes the session and clears the message log; the next message starts a new session
// @Tags Conversations
// @Param conversationId path string true "Conversation ID"
// @Success 204
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/widget/conversations/{conversationId}/reset [post]
func (h *ConversationsHandler) ResetConversation(c *gin.Context) {
	conv := middleware.GetConversation(c)
	if err := h.service.Reset(conv.ID); err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteConversation handles DELETE /conversations/{conversationId}
// @Summary Delete conversation
// @Tags Conversations
// @Param conversationId path string true "Conversation ID"
// @Success 204
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/widget/conversations/{conversationId} [delete]
func (h *ConversationsHandler) DeleteConversation(c *gin.Context) {
	conv := middleware.GetConversation(c)
	if err := h.service.Delete(conv.ID); err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// StreamEvents handles GET /conversations/{conversationId}/events
// @Summary Stream conversation events
// @Description Server-Sent Events: a snapshot event first, then one event per conversation change (message, state, typing, session, reset, error)
// @Tags Conversations
// @Produce text/event-stream
// @Param conversationId path string true "Conversation ID"
// @Param token query string false "Conversation token, for clients that cannot set headers"
// @Success 200 {string} string "event stream"
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/widget/conversations/{conversationId}/events [get]
func (h *ConversationsHandler) StreamEvents(c *gin.Context) {
	ctx := c.Request.Context()
	conv := middleware.GetConversation(c)
	logger := middleware.GetRequestLogger(c).With().Str("conversation_id", conv.ID).Logger()

	// Subscribe before the snapshot so nothing falls between the two.
	sub, err := h.service.Stream(ctx, conv.ID)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	defer sub.Close()

	w, err := sse.NewWriter(c.Writer)
	if err != nil {
		middleware.HandleError(c, domainerrors.NewInternalError("streaming not supported", err))
		return
	}
	c.Status(http.StatusOK)

	snapshot := dto.NewConversationResponse(conv.ID, conv.CreatedAt, conv.Controller.Snapshot())
	if err := w.WriteJSON(sse.EventSnapshot, snapshot); err != nil {
		logger.Debug().Err(err).Msg("client went away before snapshot")
		return
	}

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.WriteKeepAlive(); err != nil {
				return
			}
		case msg, ok := <-sub.Messages():
			if !ok {
				_ = w.WriteError(domainerrors.ErrCodeServiceUnavailable, "event stream closed", "")
				return
			}
			var head struct {
				Type string `json:"type"`
			}
			if err := json.Unmarshal(msg.Payload, &head); err != nil || head.Type == "" {
				logger.Warn().Err(err).Msg("Skipping malformed event")
				continue
			}
			if err := w.WriteEvent(sse.EventType(head.Type), string(msg.Payload)); err != nil {
				logger.Debug().Err(err).Msg("client went away")
				return
			}
		}
	}
}
