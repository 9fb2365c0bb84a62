package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"textdrop/internal/domain/session"
	"textdrop/internal/services"
	"textdrop/internal/transport/httpdto"
	textdrop_errors "textdrop/pkg/errors"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	service *services.SessionService
}

func NewSessionHandler(service *services.SessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

func (h *SessionHandler) Create(c *gin.Context) {
	var req httpdto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	// Smart-cut defaults to on when the field is omitted.
	smartCut := true
	if req.SmartCut != nil {
		smartCut = *req.SmartCut
	}

	sess := h.service.Create(session.Policy{
		Title:             req.Title,
		AllowedExtensions: req.AllowedExtensions,
		MaxSizeBytes:      req.MaxSizeBytes,
		SmartCut:          smartCut,
		SanitizeOutput:    req.SanitizeOutput,
	})

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.CreateSessionResponse{
		ID:        sess.ID,
		UploadURL: fmt.Sprintf("/v1/sessions/%s/file", sess.ID),
		StatusURL: fmt.Sprintf("/v1/sessions/%s/status", sess.ID),
		CreatedAt: sess.CreatedAt.Format(time.RFC3339),
	}))
}

func (h *SessionHandler) GetConfig(c *gin.Context) {
	sess, err := h.service.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.SessionConfigResponse{
		Policy: httpdto.PolicyDTO{
			Title:             sess.Policy.Title,
			AllowedExtensions: sess.Policy.AllowedExtensions,
			MaxSizeBytes:      sess.Policy.MaxSizeBytes,
			SmartCut:          sess.Policy.SmartCut,
			SanitizeOutput:    sess.Policy.SanitizeOutput,
		},
		Status: string(sess.Status),
	}))
}

func (h *SessionHandler) GetStatus(c *gin.Context) {
	sess, err := h.service.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := httpdto.SessionStatusResponse{
		Status: string(sess.Status),
		Ready:  sess.Ready(),
	}
	if sess.File != nil {
		resp.Filename = sess.File.OriginalName
		resp.OriginalSize = sess.File.OriginalSizeBytes
		resp.TotalChunks = len(sess.Chunks)
		resp.DeliveredCount = sess.DeliveredCount
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(resp))
}

func (h *SessionHandler) UploadFile(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("missing file field", "INVALID_REQUEST"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("failed to open file", "INVALID_REQUEST"))
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("failed to read file", "INVALID_REQUEST"))
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = mimetype.Detect(raw).String()
	}

	summary, err := h.service.AttachUpload(c.Param("id"), raw, fileHeader.Filename, mimeType)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.UploadFileResponse{
		Filename:         summary.Filename,
		OriginalSize:     summary.OriginalSizeBytes,
		EncodedSize:      summary.EncodedTotalChars,
		ChunkCount:       summary.ChunkCount,
		CompressionRatio: summary.CompressionRatio,
	}))
}

func (h *SessionHandler) GetChunk(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid chunk index", "INVALID_REQUEST"))
		return
	}

	delivery, err := h.service.DeliverChunk(c.Param("id"), index)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ChunkResponse{
		Index:       delivery.Index,
		TotalChunks: delivery.TotalChunks,
		IsLast:      delivery.IsLast,
		Data:        delivery.Data,
	}))
}

func (h *SessionHandler) GetAllChunks(c *gin.Context) {
	bundle, err := h.service.DeliverAll(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	// Chunks are keyed c0..cN so a constrained consumer can address them
	// positionally without parsing an array.
	payload := gin.H{
		"filename":     bundle.Filename,
		"total_chunks": bundle.TotalChunks,
	}
	for i, chunk := range bundle.Chunks {
		payload[fmt.Sprintf("c%d", i)] = chunk
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(payload))
}

// respondError maps service errors to HTTP status and machine codes.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, textdrop_errors.ErrNotFound):
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse(err.Error(), "NOT_FOUND"))
	case errors.Is(err, textdrop_errors.ErrInvalidState):
		c.JSON(http.StatusConflict, httpdto.NewErrorResponse(err.Error(), "INVALID_STATE"))
	case errors.Is(err, textdrop_errors.ErrNoFileYet):
		c.JSON(http.StatusConflict, httpdto.NewErrorResponse(err.Error(), "NO_FILE_YET"))
	case errors.Is(err, textdrop_errors.ErrTypeNotAllowed):
		c.JSON(http.StatusUnsupportedMediaType, httpdto.NewErrorResponse(err.Error(), "TYPE_NOT_ALLOWED"))
	case errors.Is(err, textdrop_errors.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, httpdto.NewErrorResponse(err.Error(), "TOO_LARGE"))
	case errors.Is(err, textdrop_errors.ErrInvalidIndex):
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "INVALID_INDEX"))
	default:
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(err.Error(), "INTERNAL_ERROR"))
	}
}
