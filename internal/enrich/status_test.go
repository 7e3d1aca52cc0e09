package enrich

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusByID(t *testing.T, tracker *StatusTracker, id int) BatchStatus {
	t.Helper()
	for _, s := range tracker.Snapshot() {
		if s.BatchID == id {
			return s
		}
	}
	t.Fatalf("batch %d not tracked", id)
	return BatchStatus{}
}

func TestStatusTracker_Lifecycle(t *testing.T) {
	tracker := NewStatusTracker(time.Minute)

	tracker.Register(1, 10)
	tracker.Register(2, 5)

	s := statusByID(t, tracker, 1)
	assert.Equal(t, StatePending, s.State)
	assert.Equal(t, 10, s.UnitCount)
	assert.True(t, s.StartedAt.IsZero())

	tracker.MarkProcessing(1)
	s = statusByID(t, tracker, 1)
	assert.Equal(t, StateProcessing, s.State)
	assert.False(t, s.StartedAt.IsZero())

	tracker.MarkDone(1, true, nil)
	assert.Equal(t, StateCompleted, statusByID(t, tracker, 1).State)

	callErr := eris.New("provider down")
	tracker.MarkProcessing(2)
	tracker.MarkDone(2, false, callErr)
	s = statusByID(t, tracker, 2)
	assert.Equal(t, StateFailed, s.State)
	assert.Equal(t, callErr, s.Err)
}

func TestStatusTracker_UnknownBatchIgnored(t *testing.T) {
	tracker := NewStatusTracker(time.Minute)

	tracker.MarkProcessing(99)
	tracker.MarkDone(99, true, nil)
	assert.Empty(t, tracker.Snapshot())
}

func TestStatusTracker_Reset(t *testing.T) {
	tracker := NewStatusTracker(time.Minute)
	tracker.Register(1, 3)
	require.Len(t, tracker.Snapshot(), 1)

	tracker.Reset()
	assert.Empty(t, tracker.Snapshot())
}

func TestStatusTracker_SnapshotIsCopy(t *testing.T) {
	tracker := NewStatusTracker(time.Minute)
	tracker.Register(1, 3)

	snap := tracker.Snapshot()
	snap[0].State = StateFailed

	assert.Equal(t, StatePending, statusByID(t, tracker, 1).State)
}

func TestStatusTracker_ReporterStopsOnCancelAndWaits(t *testing.T) {
	tracker := NewStatusTracker(5 * time.Millisecond)
	tracker.Register(1, 2)
	tracker.MarkProcessing(1)

	ctx, cancel := context.WithCancel(context.Background())
	tracker.StartReporter(ctx)

	// Let the reporter tick at least once, then cancel and await it.
	time.Sleep(20 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		tracker.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reporter did not exit after cancellation")
	}
}

func TestStatusTracker_WaitWithoutReporterIsNoop(t *testing.T) {
	tracker := NewStatusTracker(time.Minute)
	tracker.Wait()
}

func TestStatusTracker_DefaultInterval(t *testing.T) {
	tracker := NewStatusTracker(0)
	assert.Equal(t, DefaultReportInterval, tracker.interval)
}
