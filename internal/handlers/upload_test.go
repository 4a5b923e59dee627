package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmwangi/botdeck/internal/domain"
	"github.com/dmwangi/botdeck/internal/storage"
)

func multipartBody(t *testing.T, filename, contentType, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = io.Copy(part, strings.NewReader(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func newUploadEcho(h *UploadHandler) *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	e.POST("/uploads", h.Upload, asUser(domain.ChatUser{ID: "alice", Role: domain.RoleUser}))
	e.GET("/uploads/:name", h.Download)
	return e
}

func TestUploadStoresAttachment(t *testing.T) {
	memFs := afero.NewMemMapFs()
	h := NewUploadHandler(storage.NewFileStore(memFs), 1<<20, nil)
	e := newUploadEcho(h)

	body, contentType := multipartBody(t, "cat.png", "image/png", "png bytes")
	req := httptest.NewRequest(http.MethodPost, "/uploads", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.AttachmentImage, resp.Attachment.Kind)
	assert.Equal(t, "cat.png", resp.Attachment.Name)
	assert.Equal(t, int64(len("png bytes")), resp.Attachment.Size)
	require.True(t, strings.HasPrefix(resp.Attachment.URL, "/uploads/"))

	// The stored blob round-trips through the download endpoint.
	req = httptest.NewRequest(http.MethodGet, resp.Attachment.URL, nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png bytes", rec.Body.String())
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	h := NewUploadHandler(storage.NewFileStore(afero.NewMemMapFs()), 4, nil)
	e := newUploadEcho(h)

	body, contentType := multipartBody(t, "big.bin", "application/octet-stream", "way too large")
	req := httptest.NewRequest(http.MethodPost, "/uploads", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestUploadRejectsDisallowedMimeType(t *testing.T) {
	h := NewUploadHandler(storage.NewFileStore(afero.NewMemMapFs()), 0, []string{"image/png"})
	e := newUploadEcho(h)

	body, contentType := multipartBody(t, "script.sh", "text/x-sh", "#!/bin/sh")
	req := httptest.NewRequest(http.MethodPost, "/uploads", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestDownloadMissingFile(t *testing.T) {
	h := NewUploadHandler(storage.NewFileStore(afero.NewMemMapFs()), 0, nil)
	e := newUploadEcho(h)

	req := httptest.NewRequest(http.MethodGet, "/uploads/ghost.bin", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
