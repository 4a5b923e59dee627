package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dmwangi/botdeck/internal/domain"
	"github.com/dmwangi/botdeck/internal/middleware"
	"github.com/dmwangi/botdeck/internal/storage"
)

// UploadHandler stores chat attachments and serves them back. Upload returns
// an attachment descriptor the client embeds in its send_message frame.
type UploadHandler struct {
	store            storage.Store
	maxFileSize      int64
	allowedMimeTypes map[string]bool
}

// NewUploadHandler creates an UploadHandler. A zero maxFileSize disables the
// size check; an empty mime list allows every type.
func NewUploadHandler(store storage.Store, maxFileSize int64, allowedMimeTypes []string) *UploadHandler {
	mimeTypesMap := make(map[string]bool)
	for _, mimeType := range allowedMimeTypes {
		mimeTypesMap[strings.TrimSpace(mimeType)] = true
	}

	return &UploadHandler{
		store:            store,
		maxFileSize:      maxFileSize,
		allowedMimeTypes: mimeTypesMap,
	}
}

// Upload handles POST /uploads from a multipart form.
func (h *UploadHandler) Upload(c echo.Context) error {
	ctx := c.Request().Context()
	logger := middleware.FromContext(ctx)

	user, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	var req UploadFileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format.")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	fileHeader := req.File
	if h.maxFileSize > 0 && fileHeader.Size > h.maxFileSize {
		return c.String(http.StatusRequestEntityTooLarge,
			fmt.Sprintf("File size of %d bytes exceeds the limit of %d bytes", fileHeader.Size, h.maxFileSize))
	}
	mimeType := fileHeader.Header.Get("Content-Type")
	if len(h.allowedMimeTypes) > 0 && !h.allowedMimeTypes[mimeType] {
		return c.String(http.StatusUnsupportedMediaType,
			fmt.Sprintf("File type '%s' is not allowed", mimeType))
	}

	src, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to open uploaded file")
	}
	defer src.Close()

	// Sanitize the filename to prevent path traversal; the stored name is
	// a fresh uuid so uploads never collide.
	sanitizedFilename := filepath.Base(fileHeader.Filename)
	storedName := uuid.NewString() + filepath.Ext(sanitizedFilename)

	size, err := h.store.Save(ctx, storedName, src)
	if err != nil {
		logger.Error("Failed to save attachment", slog.String("error", err.Error()))
		return c.String(http.StatusInternalServerError, "Failed to save file")
	}

	kind := domain.AttachmentFile
	if strings.HasPrefix(mimeType, "image/") {
		kind = domain.AttachmentImage
	}

	logger.Info("Attachment stored", "userID", user.ID, "name", sanitizedFilename, "size", size)
	return c.JSON(http.StatusCreated, UploadResponse{
		Attachment: domain.Attachment{
			Kind: kind,
			URL:  "/uploads/" + storedName,
			Name: sanitizedFilename,
			Size: size,
		},
	})
}

// Download handles GET /uploads/:name.
func (h *UploadHandler) Download(c echo.Context) error {
	name := filepath.Base(c.Param("name"))

	f, err := h.store.Open(c.Request().Context(), name)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "File not found")
	}
	defer f.Close()

	return c.Stream(http.StatusOK, echo.MIMEOctetStream, f)
}
