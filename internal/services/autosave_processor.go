package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// AutosaveConfig holds configuration for the autosave processor
type AutosaveConfig struct {
	// Path is the CSV file the ledger is written to
	Path string

	// Interval is how often to check for unsaved changes (default: 30s)
	Interval time.Duration
}

func DefaultAutosaveConfig(path string) AutosaveConfig {
	return AutosaveConfig{
		Path:     path,
		Interval: 30 * time.Second,
	}
}

// AutosaveProcessor writes the ledger to disk whenever its version moved
// since the last successful save.
type AutosaveProcessor struct {
	ledger *LedgerService
	config AutosaveConfig

	mu           sync.Mutex
	running      bool
	savedVersion uint64
	stopCh       chan struct{}
	doneCh       chan struct{}
}

// NewAutosaveProcessor treats the ledger's current version as already saved.
func NewAutosaveProcessor(ledger *LedgerService, config AutosaveConfig) *AutosaveProcessor {
	return &AutosaveProcessor{
		ledger:       ledger,
		config:       config,
		savedVersion: ledger.Version(),
	}
}

// Start begins the save loop. Returns an error if already running.
func (p *AutosaveProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("autosave processor is already running")
	}
	if p.config.Interval <= 0 {
		p.mu.Unlock()
		return fmt.Errorf("invalid autosave interval %v", p.config.Interval)
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	go p.runLoop(ctx, stopCh, doneCh)

	slog.InfoContext(ctx, "Autosave processor started",
		"interval", p.config.Interval,
		"path", p.config.Path)

	return nil
}

// Stop stops the loop and flushes pending changes once more.
func (p *AutosaveProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
	case <-ctx.Done():
		slog.WarnContext(ctx, "Autosave processor stop timed out")
		return ctx.Err()
	}

	return p.Flush(ctx)
}

func (p *AutosaveProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Dirty reports whether the ledger changed since the last save.
func (p *AutosaveProcessor) Dirty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ledger.Version() != p.savedVersion
}

// Flush saves the ledger if it has unsaved changes.
func (p *AutosaveProcessor) Flush(ctx context.Context) error {
	if !p.Dirty() {
		return nil
	}
	version, err := p.ledger.SaveFile(ctx, p.config.Path)
	if err != nil {
		return fmt.Errorf("autosave: %w", err)
	}
	p.mu.Lock()
	p.savedVersion = version
	p.mu.Unlock()
	return nil
}

func (p *AutosaveProcessor) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Flush(ctx); err != nil {
				slog.ErrorContext(ctx, "Autosave failed", "path", p.config.Path, "error", err)
			}
		}
	}
}
