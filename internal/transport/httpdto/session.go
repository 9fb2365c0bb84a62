package httpdto

// CreateSessionRequest is used for POST /v1/sessions
type CreateSessionRequest struct {
	Title             string   `json:"title" binding:"required"`
	AllowedExtensions []string `json:"allowed_extensions,omitempty"`
	MaxSizeBytes      int64    `json:"max_size_bytes" binding:"required,gt=0"`
	SmartCut          *bool    `json:"smart_cut,omitempty"`
	SanitizeOutput    bool     `json:"sanitize_output,omitempty"`
}

// CreateSessionResponse is returned after creating a session
type CreateSessionResponse struct {
	ID        string `json:"id"`
	UploadURL string `json:"upload_url"`
	StatusURL string `json:"status_url"`
	CreatedAt string `json:"created_at"`
}

// PolicyDTO mirrors the session policy in API responses
type PolicyDTO struct {
	Title             string   `json:"title"`
	AllowedExtensions []string `json:"allowed_extensions,omitempty"`
	MaxSizeBytes      int64    `json:"max_size_bytes"`
	SmartCut          bool     `json:"smart_cut"`
	SanitizeOutput    bool     `json:"sanitize_output"`
}

// SessionConfigResponse is returned for GET /v1/sessions/:id/config
type SessionConfigResponse struct {
	Policy PolicyDTO `json:"policy"`
	Status string    `json:"status"`
}

// SessionStatusResponse is returned for GET /v1/sessions/:id/status
type SessionStatusResponse struct {
	Status         string `json:"status"`
	Ready          bool   `json:"ready"`
	Filename       string `json:"filename,omitempty"`
	OriginalSize   int64  `json:"original_size,omitempty"`
	TotalChunks    int    `json:"total_chunks,omitempty"`
	DeliveredCount int    `json:"delivered_count,omitempty"`
}

// UploadFileResponse is returned after a successful upload
type UploadFileResponse struct {
	Filename         string  `json:"filename"`
	OriginalSize     int64   `json:"original_size"`
	EncodedSize      int64   `json:"encoded_size"`
	ChunkCount       int     `json:"chunk_count"`
	CompressionRatio float64 `json:"compression_ratio"`
}

// ChunkResponse is returned for GET /v1/sessions/:id/chunks/:index
type ChunkResponse struct {
	Index       int    `json:"index"`
	TotalChunks int    `json:"total_chunks"`
	IsLast      bool   `json:"is_last"`
	Data        string `json:"data"`
}
