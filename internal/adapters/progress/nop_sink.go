package progress

import (
	"context"

	"github.com/trebuchet-org/sling/internal/usecase"
)

// NopSink discards progress, for non-interactive runs
type NopSink struct{}

// NewNopSink creates a new no-op progress sink
func NewNopSink() *NopSink {
	return &NopSink{}
}

// OnProgress does nothing
func (n *NopSink) OnProgress(ctx context.Context, event usecase.ProgressEvent) {}

// Info does nothing
func (n *NopSink) Info(message string) {}

// Error does nothing
func (n *NopSink) Error(message string) {}

var _ usecase.ProgressSink = (*NopSink)(nil)
