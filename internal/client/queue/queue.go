// Package queue buffers upload intents while the backend is unreachable and
// replays them one at a time, in FIFO order, when connectivity returns.
//
// Only intent metadata is persisted. Binaries live in memory, so metadata
// found at Start belongs to a previous run: it is reported once through a
// NoticeReuploadRequired notice and purged.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/mediaupload/internal/client/models"
	queuerepo "github.com/dmitrijs2005/mediaupload/internal/client/repositories/queue"
	"github.com/dmitrijs2005/mediaupload/internal/common"
	"github.com/dmitrijs2005/mediaupload/internal/logging"
	"github.com/google/uuid"
)

// ErrFlushed is passed to callbacks of intents dropped by Flush.
var ErrFlushed = fmt.Errorf("%w: removed from queue", common.ErrAborted)

// Callback receives the outcome of a queued upload.
type Callback func(ok bool, url string, err error)

// Uploader is the orchestrator the queue replays intents through.
type Uploader interface {
	Upload(ctx context.Context, f models.File, opts models.UploadOptions) models.UploadResult
}

type item struct {
	intent models.UploadIntent
	cb     Callback
}

type Queue struct {
	uploader   Uploader
	store      queuerepo.Repository
	logger     logging.Logger
	notify     func(Notice)
	onProgress models.ProgressFunc
	now        func() time.Time

	mu       sync.Mutex
	items    []*item
	inflight *item
	online   bool
	halted   bool
	forced   bool
	started  bool
	// events counts connectivity events so a failure racing with one does
	// not halt the queue past it.
	events uint64

	wake   chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

type Option func(*Queue)

func WithLogger(l logging.Logger) Option { return func(q *Queue) { q.logger = l } }

// WithNotifier sets the receiver of user-facing notices.
func WithNotifier(fn func(Notice)) Option { return func(q *Queue) { q.notify = fn } }

// WithProgress forwards replay progress of the item in flight.
func WithProgress(fn models.ProgressFunc) Option { return func(q *Queue) { q.onProgress = fn } }

func WithClock(now func() time.Time) Option { return func(q *Queue) { q.now = now } }

func New(uploader Uploader, store queuerepo.Repository, opts ...Option) *Queue {
	q := &Queue{
		uploader: uploader,
		store:    store,
		logger:   logging.Discard(),
		notify:   func(Notice) {},
		now:      time.Now,
		wake:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.logger = q.logger.With("module", "offline_queue")
	return q
}

// Start purges metadata left by a previous run and launches the worker.
func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return nil
	}
	q.mu.Unlock()

	stale, err := q.store.List(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrPersistence, err)
	}
	if len(stale) > 0 {
		if err := q.store.Clear(ctx); err != nil {
			return fmt.Errorf("%w: %w", common.ErrPersistence, err)
		}
		q.logger.Warn(ctx, "purged stale queue metadata", "count", len(stale))
		q.notify(reuploadNotice(len(stale)))
	}

	wctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	q.mu.Lock()
	q.started = true
	q.cancel = cancel
	q.done = make(chan struct{})
	q.mu.Unlock()

	go q.worker(wctx)
	q.trigger(false)
	return nil
}

// Stop halts the worker and waits for the item in flight to resolve.
// Pending items stay queued.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.started = false
	cancel, done := q.cancel, q.done
	q.mu.Unlock()

	cancel()
	<-done
}

// Enqueue records the intent and returns its id without waiting for the
// upload. Processing starts right away when online.
func (q *Queue) Enqueue(ctx context.Context, f models.File, dest models.Destination, cb Callback) (string, error) {
	intent := models.UploadIntent{
		ID:          uuid.NewString(),
		File:        f,
		Destination: dest,
		CreatedAt:   q.now().UTC(),
	}

	if err := q.store.Add(ctx, intent.Metadata()); err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrPersistence, err)
	}

	q.mu.Lock()
	q.items = append(q.items, &item{intent: intent, cb: cb})
	pending := len(q.items)
	q.mu.Unlock()

	q.logger.Info(ctx, "upload queued", "id", intent.ID, "file", f.Name)
	q.notify(queuedNotice(f.Name, pending))
	q.trigger(false)
	return intent.ID, nil
}

// SetOnline is the connectivity event. Any event lifts a halt left by a
// failed replay; going online starts a batch.
func (q *Queue) SetOnline(online bool) {
	q.mu.Lock()
	q.online = online
	q.halted = false
	q.events++
	q.mu.Unlock()

	if online {
		q.trigger(false)
	}
}

// Process is the manual trigger: it runs a batch regardless of the
// connectivity flag or a previous halt.
func (q *Queue) Process() {
	q.trigger(true)
}

func (q *Queue) Online() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.online
}

// Pending returns the metadata of queued intents in replay order.
func (q *Queue) Pending() []models.QueueMetadata {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]models.QueueMetadata, 0, len(q.items))
	for _, it := range q.items {
		out = append(out, it.intent.Metadata())
	}
	return out
}

// Flush drops every queued intent that is not in flight; their callbacks
// receive ErrFlushed. The intent being replayed stays at the head and is
// resolved by its replay.
func (q *Queue) Flush(ctx context.Context) error {
	q.mu.Lock()
	var kept, dropped []*item
	for _, it := range q.items {
		if it == q.inflight {
			kept = append(kept, it)
			continue
		}
		dropped = append(dropped, it)
	}
	q.items = kept
	q.mu.Unlock()

	var errs []error
	for _, it := range dropped {
		if err := q.store.Delete(ctx, it.intent.ID); err != nil {
			errs = append(errs, err)
		}
		if it.cb != nil {
			it.cb(false, "", ErrFlushed)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", common.ErrPersistence, errors.Join(errs...))
	}
	q.logger.Info(ctx, "queue flushed", "count", len(dropped))
	return nil
}

func (q *Queue) trigger(force bool) {
	if force {
		q.mu.Lock()
		q.forced = true
		q.mu.Unlock()
	}
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue) worker(ctx context.Context) {
	defer close(q.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.wake:
			q.drain(ctx)
		}
	}
}

// drain replays queued intents one by one until the queue is empty, a
// replay fails, or the queue goes offline.
func (q *Queue) drain(ctx context.Context) {
	q.mu.Lock()
	forced := q.forced
	q.forced = false
	if forced {
		q.halted = false
	}
	if len(q.items) == 0 || q.halted || (!q.online && !forced) {
		q.mu.Unlock()
		return
	}
	pending := len(q.items)
	epoch := q.events
	q.mu.Unlock()

	q.logger.Info(ctx, "processing queue", "pending", pending)
	q.notify(batchStartedNotice(pending))

	var succeeded, failed int
	for {
		q.mu.Lock()
		if len(q.items) == 0 || (!q.online && !forced) || ctx.Err() != nil {
			q.mu.Unlock()
			break
		}
		head := q.items[0]
		q.inflight = head
		q.mu.Unlock()

		ok := q.replay(ctx, head)

		q.mu.Lock()
		q.inflight = nil
		q.mu.Unlock()
		if !ok {
			failed++
			q.mu.Lock()
			if q.events == epoch {
				q.halted = true
			}
			q.mu.Unlock()
			break
		}
		succeeded++
	}

	q.mu.Lock()
	remaining := len(q.items)
	q.mu.Unlock()

	q.logger.Info(ctx, "queue batch finished", "succeeded", succeeded, "failed", failed, "pending", remaining)
	q.notify(batchCompletedNotice(succeeded, failed, remaining))
}

// replay uploads one intent. On success the intent leaves the queue; on
// failure it stays at the head.
func (q *Queue) replay(ctx context.Context, it *item) bool {
	res := q.uploader.Upload(ctx, it.intent.File, models.UploadOptions{
		Destination: it.intent.Destination,
		OnProgress:  q.onProgress,
	})

	if !res.Success {
		q.logger.Warn(ctx, "queued upload failed", "id", it.intent.ID, "error", res.Err)
		if it.cb != nil {
			it.cb(false, "", res.Err)
		}
		return false
	}

	q.remove(it.intent.ID)
	if err := q.store.Delete(context.WithoutCancel(ctx), it.intent.ID); err != nil {
		q.logger.Error(ctx, "failed to delete queue metadata", "id", it.intent.ID, "error", err)
	}
	if it.cb != nil {
		it.cb(true, res.URL, nil)
	}
	return true
}

func (q *Queue) remove(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, it := range q.items {
		if it.intent.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return
		}
	}
}
