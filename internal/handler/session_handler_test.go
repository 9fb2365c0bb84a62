package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"textdrop/internal/encoding"
	"textdrop/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := services.NewSessionService(encoding.NewPipeline(6000), 30*time.Minute, nil)
	h := NewSessionHandler(svc)

	r := gin.New()
	v1 := r.Group("/v1/sessions")
	{
		v1.POST("", h.Create)
		v1.GET("/:id/config", h.GetConfig)
		v1.GET("/:id/status", h.GetStatus)
		v1.POST("/:id/file", h.UploadFile)
		v1.GET("/:id/chunks", h.GetAllChunks)
		v1.GET("/:id/chunks/:index", h.GetChunk)
	}
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, url string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(payload)
	} else {
		reader = &bytes.Buffer{}
	}

	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return rec, envelope
}

func createSession(t *testing.T, r *gin.Engine) string {
	t.Helper()
	rec, envelope := doJSON(t, r, http.MethodPost, "/v1/sessions", gin.H{
		"title":          "handler test",
		"max_size_bytes": 1 << 20,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	data := envelope["data"].(map[string]any)
	id := data["id"].(string)
	require.NotEmpty(t, id)
	require.Equal(t, fmt.Sprintf("/v1/sessions/%s/file", id), data["upload_url"])
	return id
}

func uploadFile(t *testing.T, r *gin.Engine, id, filename string, content []byte) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/v1/sessions/%s/file", id), body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return rec, envelope
}

func TestCreateValidation(t *testing.T) {
	r := setupRouter(t)

	rec, envelope := doJSON(t, r, http.MethodPost, "/v1/sessions", gin.H{"title": "no size"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "INVALID_REQUEST", envelope["code"])
}

func TestUnknownSessionIsNotFound(t *testing.T) {
	r := setupRouter(t)

	rec, envelope := doJSON(t, r, http.MethodGet, "/v1/sessions/nope/status", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "NOT_FOUND", envelope["code"])
}

func TestUploadAndPollFlow(t *testing.T) {
	r := setupRouter(t)
	id := createSession(t, r)

	// Status before upload: waiting, not ready.
	rec, envelope := doJSON(t, r, http.MethodGet, fmt.Sprintf("/v1/sessions/%s/status", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	status := envelope["data"].(map[string]any)
	require.Equal(t, "waiting", status["status"])
	require.Equal(t, false, status["ready"])

	// Chunk fetch before upload is rejected.
	rec, envelope = doJSON(t, r, http.MethodGet, fmt.Sprintf("/v1/sessions/%s/chunks/0", id), nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "NO_FILE_YET", envelope["code"])

	rec, envelope = uploadFile(t, r, id, "hello.txt", []byte("hello, chunked world"))
	require.Equal(t, http.StatusOK, rec.Code)
	upload := envelope["data"].(map[string]any)
	require.Equal(t, "hello.txt", upload["filename"])
	require.Equal(t, float64(1), upload["chunk_count"])

	// Second upload is rejected without disturbing the first.
	rec, envelope = uploadFile(t, r, id, "other.txt", []byte("other"))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "INVALID_STATE", envelope["code"])

	rec, envelope = doJSON(t, r, http.MethodGet, fmt.Sprintf("/v1/sessions/%s/chunks/0", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	chunk := envelope["data"].(map[string]any)
	require.Equal(t, true, chunk["is_last"])

	raw, err := encoding.Decode(chunk["data"].(string))
	require.NoError(t, err)
	require.Equal(t, "hello, chunked world", string(raw))

	// Delivering the last chunk claims the session.
	rec, envelope = doJSON(t, r, http.MethodGet, fmt.Sprintf("/v1/sessions/%s/status", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	status = envelope["data"].(map[string]any)
	require.Equal(t, "claimed", status["status"])
	require.Equal(t, float64(1), status["delivered_count"])
}

func TestGetAllChunksBundle(t *testing.T) {
	r := setupRouter(t)
	id := createSession(t, r)

	_, _ = uploadFile(t, r, id, "bundle.txt", []byte("bundled payload"))

	rec, envelope := doJSON(t, r, http.MethodGet, fmt.Sprintf("/v1/sessions/%s/chunks", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := envelope["data"].(map[string]any)
	require.Equal(t, "bundle.txt", data["filename"])
	require.Equal(t, float64(1), data["total_chunks"])
	require.Contains(t, data, "c0")
}

func TestUploadTooLarge(t *testing.T) {
	r := setupRouter(t)

	rec, envelope := doJSON(t, r, http.MethodPost, "/v1/sessions", gin.H{
		"title":          "tiny limit",
		"max_size_bytes": 100,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	id := envelope["data"].(map[string]any)["id"].(string)

	rec, envelope = uploadFile(t, r, id, "big.bin", make([]byte, 150))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Equal(t, "TOO_LARGE", envelope["code"])
}

func TestUploadDisallowedExtension(t *testing.T) {
	r := setupRouter(t)

	rec, envelope := doJSON(t, r, http.MethodPost, "/v1/sessions", gin.H{
		"title":              "json only",
		"max_size_bytes":     1 << 20,
		"allowed_extensions": []string{".json"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	id := envelope["data"].(map[string]any)["id"].(string)

	rec, envelope = uploadFile(t, r, id, "notes.txt", []byte("not json"))
	require.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	require.Equal(t, "TYPE_NOT_ALLOWED", envelope["code"])
}
