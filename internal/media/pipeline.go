// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"

	"github.com/amica-social/amica/internal/logging"
	"github.com/amica-social/amica/internal/metrics"
)

// ErrUnsupportedMediaType indicates content-based type detection failed and
// the caller supplied no usable declared type.
var ErrUnsupportedMediaType = errors.New("unsupported media type")

// ErrEmptyInput indicates the raw bytes were empty.
var ErrEmptyInput = errors.New("empty media input")

// Default processing bounds.
const (
	DefaultMaxWidth  = 1920
	DefaultMaxHeight = 1080
	DefaultQuality   = 85

	// thumbnails are bounded by both dimension and encoded byte size
	defaultThumbDim        = 320
	defaultThumbByteBudget = 64 * 1024
	minThumbDim            = 32
)

// Options controls a single ingest. Zero-value fields fall back to pipeline
// defaults.
type Options struct {
	// Compress enables the resize/re-encode pass for images over the max
	// dimensions.
	Compress bool

	// GenerateThumbnail enables thumbnail derivation for images.
	GenerateThumbnail bool

	// MaxWidth and MaxHeight bound image dimensions when Compress is set.
	MaxWidth  int
	MaxHeight int

	// Quality is the JPEG re-encode quality (1-100) when Compress is set.
	Quality int
}

// Descriptor is the result of ingesting one media item. Data holds the
// (possibly re-encoded) bytes ready for blob storage; Thumbnail is nil when
// none was generated.
type Descriptor struct {
	Mime      string
	Size      int64
	Width     int
	Height    int
	Data      []byte
	Thumbnail []byte
}

// BatchItem is one input to IngestBatch.
type BatchItem struct {
	Raw          []byte
	DeclaredMime string
	Options      Options
}

// BatchResult pairs a batch item's descriptor with its error. Exactly one of
// the two fields is set.
type BatchResult struct {
	Descriptor *Descriptor
	Err        error
}

// Config holds pipeline-level bounds applied when Options leave them unset.
type Config struct {
	MaxWidth        int
	MaxHeight       int
	Quality         int
	ThumbDim        int
	ThumbByteBudget int
}

// DefaultConfig returns the default pipeline bounds.
func DefaultConfig() Config {
	return Config{
		MaxWidth:        DefaultMaxWidth,
		MaxHeight:       DefaultMaxHeight,
		Quality:         DefaultQuality,
		ThumbDim:        defaultThumbDim,
		ThumbByteBudget: defaultThumbByteBudget,
	}
}

// Pipeline transforms raw media bytes into storable descriptors. It holds no
// locks and owns no goroutines; every call is independent.
type Pipeline struct {
	cfg Config
}

// NewPipeline creates a media pipeline.
//
// Parameters:
//   - cfg: processing bounds; zero-value fields take defaults
//
// Returns a pipeline safe for concurrent use.
func NewPipeline(cfg Config) *Pipeline {
	def := DefaultConfig()
	if cfg.MaxWidth <= 0 {
		cfg.MaxWidth = def.MaxWidth
	}
	if cfg.MaxHeight <= 0 {
		cfg.MaxHeight = def.MaxHeight
	}
	if cfg.Quality <= 0 || cfg.Quality > 100 {
		cfg.Quality = def.Quality
	}
	if cfg.ThumbDim <= 0 {
		cfg.ThumbDim = def.ThumbDim
	}
	if cfg.ThumbByteBudget <= 0 {
		cfg.ThumbByteBudget = def.ThumbByteBudget
	}
	return &Pipeline{cfg: cfg}
}

// Ingest determines the media type of raw, applies the image resize and
// thumbnail passes when requested, and returns a descriptor.
//
// The declared MIME type is a tie-breaker only: content detection wins when
// it succeeds, and ErrUnsupportedMediaType is returned when detection yields
// nothing usable and no declared type is given.
func (p *Pipeline) Ingest(ctx context.Context, raw []byte, declaredMime string, opts Options) (*Descriptor, error) {
	start := time.Now()
	desc, err := p.ingest(ctx, raw, declaredMime, opts)
	if err != nil {
		metrics.MediaIngestErrors.WithLabelValues(errorReason(err)).Inc()
		return nil, err
	}
	metrics.RecordMediaIngest(mediaClass(desc.Mime), time.Since(start))
	return desc, nil
}

// IngestBatch processes each item independently. One item's failure never
// aborts the rest; the result slice has one entry per input in order.
func (p *Pipeline) IngestBatch(ctx context.Context, items []BatchItem) []BatchResult {
	results := make([]BatchResult, len(items))
	for i, item := range items {
		desc, err := p.Ingest(ctx, item.Raw, item.DeclaredMime, item.Options)
		results[i] = BatchResult{Descriptor: desc, Err: err}
		if err != nil {
			logging.Warn().
				Err(err).
				Int("item", i).
				Msg("batch media ingest item failed")
		}
	}
	return results
}

func (p *Pipeline) ingest(ctx context.Context, raw []byte, declaredMime string, opts Options) (*Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrEmptyInput
	}

	mime := mimetype.Detect(raw).String()
	if isOpaque(mime) {
		// Detection found nothing specific; fall back to the declared type
		// if one was given.
		if declaredMime == "" {
			return nil, fmt.Errorf("%w: detection inconclusive and no declared type", ErrUnsupportedMediaType)
		}
		mime = declaredMime
	}

	desc := &Descriptor{
		Mime: baseMime(mime),
		Size: int64(len(raw)),
		Data: raw,
	}

	if !strings.HasPrefix(desc.Mime, "image/") {
		// Video and other media pass through untouched: no codec work here,
		// the descriptor carries size and type only.
		return desc, nil
	}

	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable image: %v", ErrUnsupportedMediaType, err)
	}

	bounds := img.Bounds()
	desc.Width = bounds.Dx()
	desc.Height = bounds.Dy()

	maxW, maxH, quality := opts.MaxWidth, opts.MaxHeight, opts.Quality
	if maxW <= 0 {
		maxW = p.cfg.MaxWidth
	}
	if maxH <= 0 {
		maxH = p.cfg.MaxHeight
	}
	if quality <= 0 || quality > 100 {
		quality = p.cfg.Quality
	}

	if opts.Compress && (desc.Width > maxW || desc.Height > maxH) {
		resized := imaging.Fit(img, maxW, maxH, imaging.Lanczos)
		data, err := encodeJPEG(resized, quality)
		if err != nil {
			return nil, fmt.Errorf("re-encode image: %w", err)
		}

		desc.Data = data
		desc.Size = int64(len(data))
		desc.Mime = "image/jpeg"
		desc.Width = resized.Bounds().Dx()
		desc.Height = resized.Bounds().Dy()
		img = resized
	}

	if opts.GenerateThumbnail {
		thumb, err := p.renderThumbnail(img)
		if err != nil {
			return nil, fmt.Errorf("render thumbnail: %w", err)
		}
		desc.Thumbnail = thumb
	}

	return desc, nil
}

// renderThumbnail fits the image into the thumbnail dimensions and shrinks
// the target until the encoded bytes fit the byte budget or the dimension
// floor is hit. The floor result is returned even if it exceeds the budget.
func (p *Pipeline) renderThumbnail(img image.Image) ([]byte, error) {
	dim := p.cfg.ThumbDim
	for {
		thumb := imaging.Fit(img, dim, dim, imaging.Lanczos)
		data, err := encodeJPEG(thumb, p.cfg.Quality)
		if err != nil {
			return nil, err
		}
		if len(data) <= p.cfg.ThumbByteBudget || dim <= minThumbDim {
			return data, nil
		}
		dim /= 2
		if dim < minThumbDim {
			dim = minThumbDim
		}
	}
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// mediaClass maps a MIME type to its metrics label.
func mediaClass(mime string) string {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return "image"
	case strings.HasPrefix(mime, "video/"):
		return "video"
	default:
		return "other"
	}
}

// errorReason maps an ingest error to its metrics label.
func errorReason(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedMediaType):
		return "unsupported_type"
	case errors.Is(err, ErrEmptyInput):
		return "empty_input"
	default:
		return "encode"
	}
}

// isOpaque reports whether a detected MIME type carries no real signal.
func isOpaque(mime string) bool {
	base := baseMime(mime)
	return base == "" || base == "application/octet-stream" || base == "text/plain"
}

// baseMime strips any parameters (e.g. "; charset=utf-8").
func baseMime(mime string) string {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return strings.TrimSpace(mime)
}
