package job

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRescorer struct {
	calls atomic.Int32
	err   error
}

func (r *countingRescorer) RescorePending(context.Context) (int, error) {
	r.calls.Add(1)
	return 3, r.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewRescoreJob_RejectsBadSpec(t *testing.T) {
	_, err := NewRescoreJob(&countingRescorer{}, "every so often", quietLogger())
	require.Error(t, err)
}

func TestRescoreJob_RunOnce(t *testing.T) {
	r := &countingRescorer{}
	j, err := NewRescoreJob(r, "@every 1h", quietLogger())
	require.NoError(t, err)

	j.RunOnce(context.Background())
	r.err = errors.New("db down")
	j.RunOnce(context.Background())

	assert.Equal(t, int32(2), r.calls.Load())
}

func TestRescoreJob_FiresOnSchedule(t *testing.T) {
	r := &countingRescorer{}
	j, err := NewRescoreJob(r, "@every 1s", quietLogger())
	require.NoError(t, err)

	j.Start()
	require.Eventually(t, func() bool { return r.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	j.Stop(ctx)
}
