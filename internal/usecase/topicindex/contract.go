package topicindex

import (
	"context"

	domspeech "github.com/kailas-cloud/speechagg/internal/domain/speech"
)

// Corpus streams speeches page by page.
type Corpus interface {
	Stream(ctx context.Context, f domspeech.Filter, fn func(page []domspeech.Speech) error) error
}
