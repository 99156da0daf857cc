package scan

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerConfig bounds the frame analysis pool.
type WorkerConfig struct {
	Workers   int // Number of analysis goroutines (0 = 1)
	QueueSize int // Pending frames before Submit drops (0 = 1)
}

// DefaultWorkerConfig returns a single worker with a one-frame queue, which
// keeps analysis on the most recent frame.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{Workers: 1, QueueSize: 1}
}

// WorkerStats counts frames seen by a FrameWorker.
type WorkerStats struct {
	Submitted uint64 `json:"submitted"`
	Dropped   uint64 `json:"dropped"`
	Analyzed  uint64 `json:"analyzed"`
	Hits      uint64 `json:"hits"`
	Failed    uint64 `json:"failed"`
}

// FrameWorker feeds live frames to a Session from a bounded queue. Frames
// that arrive while the queue is full or the gate is suspended are dropped.
type FrameWorker struct {
	session *Session
	cfg     WorkerConfig

	frames   chan image.Image
	outcomes chan *Outcome

	mu      sync.RWMutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	submitted atomic.Uint64
	dropped   atomic.Uint64
	analyzed  atomic.Uint64
	hits      atomic.Uint64
	failed    atomic.Uint64

	// OnDrop, if set, is called for every dropped frame.
	OnDrop func()
}

// NewFrameWorker creates a worker for session.
func NewFrameWorker(session *Session, cfg WorkerConfig) *FrameWorker {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Workers > runtime.NumCPU() {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	return &FrameWorker{
		session:  session,
		cfg:      cfg,
		frames:   make(chan image.Image, cfg.QueueSize),
		outcomes: make(chan *Outcome, 1),
	}
}

// Start launches the analysis goroutines. They run until Stop or until ctx
// is cancelled.
func (w *FrameWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return errors.New("scan: worker already stopped")
	}
	if w.started {
		return errors.New("scan: worker already started")
	}
	w.started = true

	ctx, w.cancel = context.WithCancel(ctx)
	for i := 0; i < w.cfg.Workers; i++ {
		w.wg.Add(1)
		go w.run(ctx)
	}
	return nil
}

// Submit queues frame without blocking and reports whether it was accepted.
func (w *FrameWorker) Submit(frame image.Image) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	w.submitted.Add(1)
	if w.stopped || !w.started || w.session.Gate().State() == Suspended {
		w.drop()
		return false
	}
	select {
	case w.frames <- frame:
		return true
	default:
		w.drop()
		return false
	}
}

// Outcomes delivers hits. The channel is closed by Stop.
func (w *FrameWorker) Outcomes() <-chan *Outcome { return w.outcomes }

// Stats returns a snapshot of the frame counters.
func (w *FrameWorker) Stats() WorkerStats {
	return WorkerStats{
		Submitted: w.submitted.Load(),
		Dropped:   w.dropped.Load(),
		Analyzed:  w.analyzed.Load(),
		Hits:      w.hits.Load(),
		Failed:    w.failed.Load(),
	}
}

// Stop cancels analysis, waits for the goroutines and closes Outcomes.
// It is safe to call more than once.
func (w *FrameWorker) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	started := w.started
	if w.cancel != nil {
		w.cancel()
	}
	close(w.frames)
	w.mu.Unlock()

	if started {
		w.wg.Wait()
	}
	close(w.outcomes)
}

func (w *FrameWorker) drop() {
	w.dropped.Add(1)
	if w.OnDrop != nil {
		w.OnDrop()
	}
}

func (w *FrameWorker) run(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-w.frames:
			if !ok {
				return
			}
			w.handle(ctx, frame)
		}
	}
}

func (w *FrameWorker) handle(ctx context.Context, frame image.Image) {
	out, err := w.session.AnalyzeFrame(ctx, frame)
	switch {
	case errors.Is(err, ErrSuspended):
		w.drop()
		return
	case err != nil:
		w.failed.Add(1)
		slog.Debug("Frame analysis failed", "error", err)
		return
	}
	w.analyzed.Add(1)
	if out == nil {
		return
	}
	w.hits.Add(1)
	select {
	case w.outcomes <- out:
	case <-ctx.Done():
	}
}
