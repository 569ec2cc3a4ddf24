package storage

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/amck/mlmodels/lib/dataset"
)

// SampleUpdater is an adaptor on top of Samples store, to update user's samples for the trainer.
type SampleUpdater struct {
	samplesService *Samples
	timeout        time.Duration
}

// NewSampleUpdater creates a new SampleUpdater instance with the given samples service and timeout.
func NewSampleUpdater(samplesService *Samples, timeout time.Duration) *SampleUpdater {
	return &SampleUpdater{samplesService: samplesService, timeout: timeout}
}

// Append a sample to the storage, forcing user origin
func (u *SampleUpdater) Append(ctx context.Context, sample dataset.Sample) error {
	ctx, cancel := u.withTimeout(ctx)
	defer cancel()
	return u.samplesService.Add(ctx, SampleOriginUser, sample)
}

// Remove the most recent copy of user's sample from the storage
func (u *SampleUpdater) Remove(ctx context.Context, sample dataset.Sample) error {
	ctx, cancel := u.withTimeout(ctx)
	defer cancel()
	return u.samplesService.DeleteSample(ctx, SampleOriginUser, sample)
}

// Samples returns all user's samples
func (u *SampleUpdater) Samples(ctx context.Context) ([]dataset.Sample, error) {
	ctx, cancel := u.withTimeout(ctx)
	defer cancel()
	it, err := u.samplesService.Iterator(ctx, SampleOriginUser)
	if err != nil {
		return nil, err
	}
	res := slices.Collect(it)
	// iterator stops quietly on cancellation, partial list is not a result
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to read user samples: %w", err)
	}
	return res, nil
}

// Stats returns statistics of all samples in the storage
func (u *SampleUpdater) Stats(ctx context.Context) (*SamplesStats, error) {
	ctx, cancel := u.withTimeout(ctx)
	defer cancel()
	return u.samplesService.Stats(ctx)
}

func (u *SampleUpdater) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if u.timeout > 0 {
		return context.WithTimeout(ctx, u.timeout)
	}
	return ctx, func() {}
}
