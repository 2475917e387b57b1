package facet

import (
	"context"

	domspeech "github.com/kailas-cloud/speechagg/internal/domain/speech"
)

// Corpus streams the speeches admitted by a filter, page by page.
type Corpus interface {
	Stream(ctx context.Context, f domspeech.Filter, fn func(page []domspeech.Speech) error) error
}
