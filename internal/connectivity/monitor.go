package connectivity

import (
	"context"
	"time"

	"github.com/MKhiriev/go-farm-sync/internal/logger"
	"github.com/MKhiriev/go-farm-sync/internal/workers"
)

// Pinger checks that the remote store answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Monitor keeps a [Static] state current by pinging the remote store every
// interval. It implements [workers.Worker].
type Monitor struct {
	*Static
	*workers.Ticker

	pinger   Pinger
	timeout  time.Duration
	onChange []func(ctx context.Context, online bool)
	logger   *logger.Logger
}

// NewMonitor returns an idle Monitor that assumes the node is offline until
// the first ping succeeds. Each ping is bounded by timeout.
func NewMonitor(pinger Pinger, interval, timeout time.Duration, logger *logger.Logger) *Monitor {
	m := &Monitor{
		Static:  NewStatic(false),
		pinger:  pinger,
		timeout: timeout,
		logger:  logger,
	}
	m.Ticker = workers.NewTicker("connectivity", interval, true, func(ctx context.Context) {
		m.Check(ctx)
	}, logger)
	return m
}

// OnChange registers fn to be called on the monitor goroutine whenever the
// state flips. Register before Start.
func (m *Monitor) OnChange(fn func(ctx context.Context, online bool)) {
	m.onChange = append(m.onChange, fn)
}

// Check pings the remote store once, updates the state and returns it.
func (m *Monitor) Check(ctx context.Context) bool {
	pingCtx := ctx
	if m.timeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	err := m.pinger.Ping(pingCtx)
	online := err == nil

	if m.SetOnline(online) {
		ev := m.logger.Info()
		if err != nil {
			ev = m.logger.Warn().Err(err)
		}
		ev.Str("func", "Monitor.Check").Bool("online", online).Msg("connectivity changed")

		for _, fn := range m.onChange {
			fn(ctx, online)
		}
	}

	return online
}
