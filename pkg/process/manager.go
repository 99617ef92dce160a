// Package process provides signal-driven lifecycle management for the CLI.
package process

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fluxyoga/batchcaption/pkg/logger"
)

// Manager turns OS termination signals into context cancellation and runs
// registered shutdown handlers in reverse order.
type Manager struct {
	logger   logger.Logger
	handlers []func()
	mu       sync.Mutex
	once     sync.Once
}

// NewManager creates a new process manager.
func NewManager(log logger.Logger) *Manager {
	return &Manager{logger: log}
}

// RegisterShutdownHandler adds a shutdown handler.
func (m *Manager) RegisterShutdownHandler(handler func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, handler)
}

// WatchSignals returns a child context of ctx that is cancelled on SIGINT or
// SIGTERM. Shutdown handlers run once, after cancellation, whichever side
// triggered it.
func (m *Manager) WatchSignals(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			m.logger.Info("Received signal, shutting down", logger.WithField("signal", sig))
		case <-ctx.Done():
		}
		cancel()
		m.runShutdownHandlers()
	}()

	return ctx
}

func (m *Manager) runShutdownHandlers() {
	m.once.Do(func() {
		m.mu.Lock()
		handlers := make([]func(), len(m.handlers))
		copy(handlers, m.handlers)
		m.mu.Unlock()

		for i := len(handlers) - 1; i >= 0; i-- {
			handlers[i]()
		}
	})
}
