package handlers

import (
	"mime/multipart"

	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the go-playground/validator library to implement
// Echo's Validator interface.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new CustomValidator.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate implements the echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// EditMessageRequest is the body of PUT /messages/:id.
type EditMessageRequest struct {
	Text string `json:"text" validate:"required"`
}

// BatchDeleteRequest is the body of the batch delete endpoint.
type BatchDeleteRequest struct {
	MessageIDs []string `json:"messageIds" validate:"required,min=1,dive,required"`
}

// RestrictRequest is the body of POST /users/:id/restrict.
type RestrictRequest struct {
	Reason string `json:"reason"`
}

// BanDeviceRequest is the body of POST /devices/ban.
type BanDeviceRequest struct {
	Fingerprint string   `json:"fingerprint" validate:"required"`
	Reason      string   `json:"reason"`
	UserIDs     []string `json:"userIds"`
}

// UploadFileRequest is the DTO for the attachment upload endpoint.
type UploadFileRequest struct {
	File *multipart.FileHeader `form:"file" validate:"required"`
}
