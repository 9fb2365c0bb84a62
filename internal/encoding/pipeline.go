// Package encoding turns a raw byte buffer into a sequence of small,
// independently decodable text chunks: optional character sanitization,
// boundary-aware chunking, then per-chunk zstd compression and base64.
package encoding

import (
	"encoding/base64"
	"fmt"
	"strings"
	"unicode"

	"github.com/klauspost/compress/zstd"
)

const (
	// DefaultChunkSize is the raw (pre-compression) chunk size in bytes.
	DefaultChunkSize = 6000

	// smartCutWindow bounds the backward scan for a safe cut point.
	smartCutWindow = 500
)

// safeDelimiters are the bytes a chunk boundary may be placed after without
// splitting a token a downstream text or structured-data consumer cares
// about.
const safeDelimiters = ", \n\r}]:;\t"

// allowedPunctuation is the punctuation kept by sanitize, alongside Unicode
// letters, digits and whitespace.
const allowedPunctuation = ".,:;!?'\"()[]{}<>-_+=/\\@#$%^&*|~`"

// zstdEncoder and zstdDecoder are shared across all pipelines. Both are safe
// for concurrent use via EncodeAll/DecodeAll.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("encoding: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("encoding: zstd decoder initialization failed: " + err.Error())
	}
}

// Options selects the per-upload behavior of the pipeline. The chunk size is
// deliberately not part of it: it is a property of the pipeline, not of a
// session policy.
type Options struct {
	SmartCut bool
	Sanitize bool
}

// Pipeline is a stateless transformation; one instance serves all sessions
// concurrently.
type Pipeline struct {
	chunkSize int
}

func NewPipeline(chunkSize int) *Pipeline {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Pipeline{chunkSize: chunkSize}
}

// Encode transforms raw into an ordered sequence of encoded chunk strings.
// Each chunk is compressed and base64-encoded in isolation so that any chunk
// can be decoded given only its own string. An empty input yields zero
// chunks.
func (p *Pipeline) Encode(raw []byte, opts Options) []string {
	if opts.Sanitize {
		raw = sanitize(raw)
	}

	chunks := p.split(raw, opts.SmartCut)

	encoded := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		compressed := zstdEncoder.EncodeAll(chunk, nil)
		encoded = append(encoded, base64.StdEncoding.EncodeToString(compressed))
	}
	return encoded
}

// Decode reverses Encode for a single chunk.
func Decode(chunk string) ([]byte, error) {
	compressed, err := base64.StdEncoding.DecodeString(chunk)
	if err != nil {
		return nil, fmt.Errorf("decode chunk: %w", err)
	}
	raw, err := zstdDecoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress chunk: %w", err)
	}
	return raw, nil
}

// split cuts raw into slices of at most chunkSize bytes. With smartCut
// enabled, interior boundaries are nudged back to just after the nearest
// safe delimiter within the lookback window. Boundaries are strictly
// increasing and the final chunk always ends at the buffer end.
func (p *Pipeline) split(raw []byte, smartCut bool) [][]byte {
	var chunks [][]byte
	for start := 0; start < len(raw); {
		end := start + p.chunkSize
		if end >= len(raw) {
			end = len(raw)
		} else if smartCut {
			end = cutPoint(raw, start, end)
		}
		chunks = append(chunks, raw[start:end])
		start = end
	}
	return chunks
}

// cutPoint scans backward from end-1 for the closest safe delimiter and
// returns the boundary just after it. The scan never goes past start+1, so
// the resulting chunk is never empty. If no delimiter is found in the
// window, the raw end is kept.
func cutPoint(raw []byte, start, end int) int {
	floor := end - smartCutWindow
	if floor < start+1 {
		floor = start + 1
	}
	for i := end - 1; i >= floor; i-- {
		if strings.IndexByte(safeDelimiters, raw[i]) >= 0 {
			return i + 1
		}
	}
	return end
}

// sanitize drops every character outside a fixed allow-list of Unicode
// letters, digits, whitespace and common punctuation. It iterates decoded
// runes, not raw bytes. Invalid UTF-8 sequences decode to U+FFFD, which is
// not in the allow-list and is therefore dropped; sanitize is lossy by
// contract, so this is a filtering policy rather than an error.
func sanitize(raw []byte) []byte {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range string(raw) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) ||
			strings.ContainsRune(allowedPunctuation, r) {
			b.WriteRune(r)
		}
	}
	return []byte(b.String())
}
