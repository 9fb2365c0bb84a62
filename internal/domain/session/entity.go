package session

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a transfer session. A session moves
// waiting -> uploaded -> claimed; it never moves backwards. Expiry is
// derived from CreatedAt and is not stored.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusUploaded Status = "uploaded"
	StatusClaimed  Status = "claimed"
	StatusExpired  Status = "expired"
)

// Policy is fixed at session creation and never mutated afterwards.
type Policy struct {
	Title             string
	AllowedExtensions []string
	MaxSizeBytes      int64
	SmartCut          bool
	SanitizeOutput    bool
}

// AllowsExtension reports whether ext (e.g. ".json") passes the policy's
// extension allow-list. An empty list allows everything. Matching is
// case-insensitive.
func (p Policy) AllowsExtension(ext string) bool {
	if len(p.AllowedExtensions) == 0 {
		return true
	}
	ext = strings.ToLower(ext)
	for _, allowed := range p.AllowedExtensions {
		if normalizeExtension(allowed) == ext {
			return true
		}
	}
	return false
}

func normalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// FileInfo describes the uploaded file. Present only once the session has
// left the waiting state.
type FileInfo struct {
	OriginalName      string
	OriginalSizeBytes int64
	MimeType          string
	EncodedTotalChars int64
}

// Session binds one depositor's upload to one consumer's chunked retrieval.
// All mutation happens under the registry's lock.
type Session struct {
	ID             string
	CreatedAt      time.Time
	Policy         Policy
	Status         Status
	File           *FileInfo
	Chunks         []string
	DeliveredCount int
}

// ExpiredAt reports whether the session has outlived ttl at the given time.
func (s *Session) ExpiredAt(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.CreatedAt) > ttl
}

// Ready reports whether the file is available for delivery.
func (s *Session) Ready() bool {
	return s.Status == StatusUploaded || s.Status == StatusClaimed
}

// MarkDelivered records that the chunk at index was handed out. The counter
// only moves forward; re-fetching an earlier chunk never lowers it. Returns
// true if this delivery completed the session.
func (s *Session) MarkDelivered(index int) bool {
	if index+1 > s.DeliveredCount {
		s.DeliveredCount = index + 1
	}
	if s.DeliveredCount == len(s.Chunks) {
		s.Status = StatusClaimed
		return true
	}
	return false
}
