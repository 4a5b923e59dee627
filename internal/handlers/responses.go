package handlers

import "github.com/dmwangi/botdeck/internal/domain"

// ErrorResponse is the standard format for API error responses.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// UploadResponse describes a stored attachment. The client embeds it in a
// send_message frame.
type UploadResponse struct {
	Attachment domain.Attachment `json:"attachment"`
}

// MessagesResponse is the body of GET /messages.
type MessagesResponse struct {
	Messages []domain.ChatMessage `json:"messages"`
}

// RestrictionsResponse is the body of GET /restrictions.
type RestrictionsResponse struct {
	Restrictions []domain.Restriction `json:"restrictions"`
}
