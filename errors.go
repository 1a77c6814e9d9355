package mdembed

import (
	"errors"

	"github.com/alnah/go-mdembed/internal/assets"
	"github.com/alnah/go-mdembed/internal/pipeline"
	"github.com/alnah/go-mdembed/internal/recompress"
)

// Sentinel errors for library operations.
var (
	// Fatal I/O errors. Per-image failures never surface as errors; they are
	// recorded in Result.Log instead.
	ErrInputUnavailable = errors.New("input unavailable")
	ErrOutputUnwritable = errors.New("output unwritable")

	// Option validation errors.
	ErrInvalidQualityScale = errors.New("invalid quality scale")
	ErrInvalidMaxSize      = errors.New("invalid max size")
	ErrInvalidWorkers      = errors.New("invalid workers")
	ErrInvalidQualityTable = recompress.ErrInvalidTable

	// Preview errors.
	ErrHTMLConversion   = pipeline.ErrHTMLConversion
	ErrStyleNotFound    = assets.ErrStyleNotFound
	ErrInvalidAssetPath = errors.New("invalid asset path")
)
