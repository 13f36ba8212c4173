package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type ResetterMock struct {
	mock.Mock
}

func (m *ResetterMock) ResetAllMonthly(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newService(r Resetter, start time.Time) (*Service, *clock) {
	c := &clock{t: start}
	s := New(r, time.Minute, newNoopLogger())
	s.now = c.now
	s.period = keyOf(start)
	return s, c
}

func TestService_Tick(t *testing.T) {
	r := new(ResetterMock)
	r.On("ResetAllMonthly", mock.Anything).Return(42, nil).Once()

	s, c := newService(r, time.Date(2026, 1, 31, 23, 59, 0, 0, time.UTC))

	assert.False(t, s.Tick(context.Background()), "same month")

	c.t = time.Date(2026, 2, 1, 0, 0, 30, 0, time.UTC)
	assert.True(t, s.Tick(context.Background()), "first tick of new month")

	c.t = c.t.Add(time.Hour)
	assert.False(t, s.Tick(context.Background()), "already reset this month")

	r.AssertNumberOfCalls(t, "ResetAllMonthly", 1)
}

func TestService_Tick_UsesUTC(t *testing.T) {
	r := new(ResetterMock)
	s, c := newService(r, time.Date(2026, 1, 31, 20, 0, 0, 0, time.UTC))

	// 1 февраля по Москве, но ещё 31 января по UTC.
	c.t = time.Date(2026, 2, 1, 2, 0, 0, 0, time.FixedZone("MSK", 3*3600))
	assert.False(t, s.Tick(context.Background()))
	r.AssertNotCalled(t, "ResetAllMonthly", mock.Anything)
}

func TestService_Tick_RetriesAfterFailure(t *testing.T) {
	r := new(ResetterMock)
	r.On("ResetAllMonthly", mock.Anything).Return(0, errors.New("db down")).Once()
	r.On("ResetAllMonthly", mock.Anything).Return(7, nil).Once()

	s, c := newService(r, time.Date(2026, 11, 30, 12, 0, 0, 0, time.UTC))
	c.t = time.Date(2026, 12, 1, 0, 1, 0, 0, time.UTC)

	assert.False(t, s.Tick(context.Background()))
	assert.True(t, s.Tick(context.Background()))
	assert.False(t, s.Tick(context.Background()))
	r.AssertNumberOfCalls(t, "ResetAllMonthly", 2)
}

type countingResetter struct{ calls atomic.Int32 }

func (c *countingResetter) ResetAllMonthly(context.Context) (int, error) {
	c.calls.Add(1)
	return 0, nil
}

func TestService_Run_StopsOnCancel(t *testing.T) {
	r := &countingResetter{}
	s := New(r, 5*time.Millisecond, newNoopLogger())
	s.period = monthKey{year: 2000, month: time.January}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return r.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Equal(t, int32(1), r.calls.Load())
}
