// Package dto provides Data Transfer Objects for API requests and responses.
package dto

// SendMessageRequest represents the request body for sending a message.
type SendMessageRequest struct {
	Text string `json:"text" binding:"required,min=1,max=4000"`
}
