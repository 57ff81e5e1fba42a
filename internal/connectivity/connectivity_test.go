package connectivity

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-farm-sync/internal/logger"
	"github.com/MKhiriev/go-farm-sync/internal/mock"
	"github.com/MKhiriev/go-farm-sync/internal/workers"
)

type stubPinger struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (s *stubPinger) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.err
}

func (s *stubPinger) set(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func TestStatic(t *testing.T) {
	s := NewStatic(true)
	assert.True(t, s.IsOnline())

	assert.True(t, s.SetOnline(false), "state changed")
	assert.False(t, s.IsOnline())
	assert.False(t, s.SetOnline(false), "state unchanged")
}

func TestMonitor_ImplementsWorker(t *testing.T) {
	var _ workers.Worker = NewMonitor(&stubPinger{}, time.Second, time.Second, logger.Nop())
	var _ Connectivity = NewMonitor(&stubPinger{}, time.Second, time.Second, logger.Nop())
}

func TestMonitor_Check(t *testing.T) {
	pinger := &stubPinger{}
	m := NewMonitor(pinger, time.Hour, time.Second, logger.Nop())

	var changes []bool
	m.OnChange(func(_ context.Context, online bool) { changes = append(changes, online) })

	assert.False(t, m.IsOnline(), "offline until the first ping")

	assert.True(t, m.Check(context.Background()))
	assert.True(t, m.IsOnline())

	// no flip, no callback
	assert.True(t, m.Check(context.Background()))

	pinger.set(errors.New("connection refused"))
	assert.False(t, m.Check(context.Background()))
	assert.False(t, m.IsOnline())

	assert.Equal(t, []bool{true, false}, changes)
}

func TestMonitor_CheckAppliesTimeout(t *testing.T) {
	m := NewMonitor(pingerFunc(func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		if !ok {
			return errors.New("no deadline")
		}
		return nil
	}), time.Hour, 50*time.Millisecond, logger.Nop())

	assert.True(t, m.Check(context.Background()))
}

func TestMonitor_StartPingsImmediately(t *testing.T) {
	pinger := &stubPinger{}
	var flips atomic.Int32

	m := NewMonitor(pinger, time.Hour, time.Second, logger.Nop())
	m.OnChange(func(context.Context, bool) { flips.Add(1) })

	m.Start(context.Background())
	defer m.Stop()

	require.Eventually(t, m.IsOnline, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), flips.Load())
}

func TestMonitor_PingsDocumentClient(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock.NewMockDocumentClient(ctrl)

	gomock.InOrder(
		client.EXPECT().Ping(gomock.Any()).Return(nil),
		client.EXPECT().Ping(gomock.Any()).Return(errors.New("dial tcp: i/o timeout")),
	)

	m := NewMonitor(client, time.Hour, time.Second, logger.Nop())

	assert.True(t, m.Check(context.Background()))
	assert.False(t, m.Check(context.Background()))
	assert.False(t, m.IsOnline())
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }
