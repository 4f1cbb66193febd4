package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sockchat/internal/app/chat"
	"sockchat/internal/app/storage"
	"sockchat/internal/configs"
)

// envelope mirrors resp.JSONResponse with a raw data field for re-decoding.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestDeps(t *testing.T) *AppDeps {
	t.Helper()

	cfg := &configs.AppConfig{
		Environment: "development",
		UploadDir:   t.TempDir(),
	}

	storageService, err := storage.NewService(storage.ServiceConfig{LocalDir: cfg.UploadDir})
	require.NoError(t, err)

	return &AppDeps{
		Hub:            chat.NewHub(),
		Config:         cfg,
		StorageService: storageService,
	}
}

func doRequest(t *testing.T, router http.Handler, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))

	return rec, env
}

func TestHealthEndpoint(t *testing.T) {
	router := Router(newTestDeps(t))

	rec, env := doRequest(t, router, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, env.Code)
}

func TestGetMessagesPagination(t *testing.T) {
	deps := newTestDeps(t)
	for i := 1; i <= 5; i++ {
		deps.Hub.Store().AppendRoom("general", "alice", "conn-1", fmt.Sprintf("msg %d", i), nil)
	}
	router := Router(deps)

	rec, env := doRequest(t, router, httptest.NewRequest(http.MethodGet, "/api/messages?room=general&page=1&limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var page MessagesPage
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 5, page.Total)
	require.Len(t, page.Messages, 2)
	assert.Equal(t, "msg 4", page.Messages[0].Body)
	assert.Equal(t, "msg 5", page.Messages[1].Body)

	// Out-of-range pages are empty, not errors.
	_, env = doRequest(t, router, httptest.NewRequest(http.MethodGet, "/api/messages?room=general&page=9", nil))
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Empty(t, page.Messages)

	// Bogus paging parameters fall back to defaults.
	_, env = doRequest(t, router, httptest.NewRequest(http.MethodGet, "/api/messages?page=x&limit=-1", nil))
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, chat.DefaultRoom, page.Room)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPageLimit, page.Limit)
}

func TestGetUsers(t *testing.T) {
	deps := newTestDeps(t)
	deps.Hub.Identities().UpsertOnline("alice", "conn-1")
	deps.Hub.Identities().UpsertOnline("bob", "conn-2")
	deps.Hub.Identities().MarkOffline("bob")
	router := Router(deps)

	_, env := doRequest(t, router, httptest.NewRequest(http.MethodGet, "/api/users", nil))

	var users []chat.Identity
	require.NoError(t, json.Unmarshal(env.Data, &users))
	require.Len(t, users, 2)
	assert.True(t, users[0].Online)
	assert.False(t, users[1].Online)
	assert.NotEmpty(t, users[1].LastSeen)
}

func TestGetRooms(t *testing.T) {
	deps := newTestDeps(t)
	deps.Hub.Rooms().Ensure("random")
	router := Router(deps)

	_, env := doRequest(t, router, httptest.NewRequest(http.MethodGet, "/api/rooms", nil))

	var rooms []string
	require.NoError(t, json.Unmarshal(env.Data, &rooms))
	assert.Equal(t, []string{chat.DefaultRoom, "random"}, rooms)
}

// buildUpload builds a multipart body with an explicit part Content-Type.
func buildUpload(t *testing.T, fileName, mimeType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName))
	header.Set("Content-Type", mimeType)

	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func TestUploadStoresFileAndReturnsURL(t *testing.T) {
	deps := newTestDeps(t)
	router := Router(deps)

	body, contentType := buildUpload(t, "photo.png", "image/png", []byte("png-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec, env := doRequest(t, router, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var attachment chat.Attachment
	require.NoError(t, json.Unmarshal(env.Data, &attachment))
	assert.Equal(t, "photo.png", attachment.Name)
	assert.Equal(t, "image/png", attachment.MimeType)
	require.NotEmpty(t, attachment.URL)

	stored, err := os.ReadFile(filepath.Join(deps.Config.UploadDir, filepath.Base(attachment.URL)))
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), stored)
}

func TestUploadRejectsDisallowedType(t *testing.T) {
	deps := newTestDeps(t)
	router := Router(deps)

	body, contentType := buildUpload(t, "script.sh", "application/x-sh", []byte("#!/bin/sh"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec, env := doRequest(t, router, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotZero(t, env.Code)
}

func TestUploadRejectsMismatchedExtension(t *testing.T) {
	deps := newTestDeps(t)
	router := Router(deps)

	body, contentType := buildUpload(t, "photo.gif", "image/png", []byte("bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec, _ := doRequest(t, router, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
