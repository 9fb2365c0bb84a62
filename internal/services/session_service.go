package services

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"textdrop/internal/domain/session"
	"textdrop/internal/encoding"
	textdrop_errors "textdrop/pkg/errors"
	"textdrop/pkg/logger"

	"github.com/google/uuid"
)

// UploadSummary is returned after a successful upload.
type UploadSummary struct {
	Filename          string
	OriginalSizeBytes int64
	EncodedTotalChars int64
	ChunkCount        int
	CompressionRatio  float64
}

// ChunkDelivery is the result of handing out a single chunk.
type ChunkDelivery struct {
	Index       int
	TotalChunks int
	IsLast      bool
	Data        string
}

// BundleDelivery is the result of handing out every chunk at once.
type BundleDelivery struct {
	Filename    string
	TotalChunks int
	Chunks      []string
}

// SessionService is the in-memory session registry. It owns the session map
// and all mutation of session state; a single mutex guards the map and every
// record in it, so a delivery read can never observe a half-written chunk
// list and two concurrent uploads can never both pass the waiting-state
// check.
type SessionService struct {
	mu       sync.Mutex
	sessions map[string]*session.Session
	pipeline *encoding.Pipeline
	ttl      time.Duration
	log      *logger.Logger
}

func NewSessionService(pipeline *encoding.Pipeline, ttl time.Duration, log *logger.Logger) *SessionService {
	return &SessionService{
		sessions: make(map[string]*session.Session),
		pipeline: pipeline,
		ttl:      ttl,
		log:      log,
	}
}

// Create registers a new waiting session with the given policy. The policy
// is fixed from here on.
func (s *SessionService) Create(policy session.Policy) session.Session {
	sess := &session.Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		Policy:    policy,
		Status:    session.StatusWaiting,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	if s.log != nil {
		s.log.Infof("session %s created (title=%q ttl=%s)", sess.ID, policy.Title, s.ttl)
	}
	return *sess
}

// Get returns a read-only snapshot of the session. It never advances
// delivery tracking.
func (s *SessionService) Get(id string) (session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookupLocked(id, time.Now())
	if err != nil {
		return session.Session{}, err
	}
	return *sess, nil
}

// AttachUpload runs the uploaded bytes through the encoding pipeline and
// binds the result to the session. A session accepts exactly one upload.
func (s *SessionService) AttachUpload(id string, raw []byte, originalName, mimeType string) (UploadSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookupLocked(id, time.Now())
	if err != nil {
		return UploadSummary{}, err
	}
	if sess.Status != session.StatusWaiting {
		return UploadSummary{}, fmt.Errorf("session %s already has a file: %w", id, textdrop_errors.ErrInvalidState)
	}
	if ext := strings.ToLower(filepath.Ext(originalName)); !sess.Policy.AllowsExtension(ext) {
		return UploadSummary{}, fmt.Errorf("extension %q: %w", ext, textdrop_errors.ErrTypeNotAllowed)
	}
	if int64(len(raw)) > sess.Policy.MaxSizeBytes {
		return UploadSummary{}, fmt.Errorf("%d bytes exceeds limit of %d: %w",
			len(raw), sess.Policy.MaxSizeBytes, textdrop_errors.ErrTooLarge)
	}

	chunks := s.pipeline.Encode(raw, encoding.Options{
		SmartCut: sess.Policy.SmartCut,
		Sanitize: sess.Policy.SanitizeOutput,
	})

	var encodedChars int64
	for _, chunk := range chunks {
		encodedChars += int64(len(chunk))
	}

	sess.Chunks = chunks
	sess.File = &session.FileInfo{
		OriginalName:      originalName,
		OriginalSizeBytes: int64(len(raw)),
		MimeType:          mimeType,
		EncodedTotalChars: encodedChars,
	}
	sess.Status = session.StatusUploaded

	ratio := 0.0
	if len(raw) > 0 {
		ratio = 1 - float64(encodedChars)/float64(len(raw))
	}

	if s.log != nil {
		s.log.Infof("session %s: %q uploaded, %d bytes -> %d chunks (%d chars encoded)",
			id, originalName, len(raw), len(chunks), encodedChars)
	}

	return UploadSummary{
		Filename:          originalName,
		OriginalSizeBytes: int64(len(raw)),
		EncodedTotalChars: encodedChars,
		ChunkCount:        len(chunks),
		CompressionRatio:  ratio,
	}, nil
}

// DeliverChunk hands out the chunk at index. Content is idempotent; the
// delivery counter only moves forward. Completing the last undelivered
// chunk claims the session.
func (s *SessionService) DeliverChunk(id string, index int) (ChunkDelivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookupLocked(id, time.Now())
	if err != nil {
		return ChunkDelivery{}, err
	}
	if sess.Status == session.StatusWaiting {
		return ChunkDelivery{}, fmt.Errorf("session %s: %w", id, textdrop_errors.ErrNoFileYet)
	}
	if index < 0 || index >= len(sess.Chunks) {
		return ChunkDelivery{}, fmt.Errorf("index %d of %d chunks: %w",
			index, len(sess.Chunks), textdrop_errors.ErrInvalidIndex)
	}

	if sess.MarkDelivered(index) && s.log != nil {
		s.log.Infof("session %s fully claimed", id)
	}

	return ChunkDelivery{
		Index:       index,
		TotalChunks: len(sess.Chunks),
		IsLast:      index == len(sess.Chunks)-1,
		Data:        sess.Chunks[index],
	}, nil
}

// DeliverAll hands out every chunk at once and claims the session
// unconditionally. Bulk delivery is all-or-nothing; it is not tracked at
// per-chunk granularity.
func (s *SessionService) DeliverAll(id string) (BundleDelivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookupLocked(id, time.Now())
	if err != nil {
		return BundleDelivery{}, err
	}
	if sess.Status == session.StatusWaiting {
		return BundleDelivery{}, fmt.Errorf("session %s: %w", id, textdrop_errors.ErrNoFileYet)
	}

	sess.DeliveredCount = len(sess.Chunks)
	sess.Status = session.StatusClaimed

	return BundleDelivery{
		Filename:    sess.File.OriginalName,
		TotalChunks: len(sess.Chunks),
		Chunks:      sess.Chunks,
	}, nil
}

// SweepExpired removes every session older than the TTL, whatever its
// status, and returns the number removed.
func (s *SessionService) SweepExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.ExpiredAt(now, s.ttl) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 && s.log != nil {
		s.log.Infof("swept %d expired session(s), %d live", removed, len(s.sessions))
	}
	return removed
}

// Count returns the number of live sessions.
func (s *SessionService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// lookupLocked resolves id, treating a session past its TTL as absent. The
// eager eviction keeps expiry exact between sweep ticks. Callers must hold
// s.mu.
func (s *SessionService) lookupLocked(id string, now time.Time) (*session.Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, textdrop_errors.ErrNotFound)
	}
	if sess.ExpiredAt(now, s.ttl) {
		delete(s.sessions, id)
		return nil, fmt.Errorf("session %s expired: %w", id, textdrop_errors.ErrNotFound)
	}
	return sess, nil
}
