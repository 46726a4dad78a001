package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fieldops-hq/leaveflow/pkg/leaveflow/domain"
	"github.com/fieldops-hq/leaveflow/pkg/leaveflow/models"
)

// Notifier fans out request change notifications to subscribers. Each
// subscriber owns its cancellation; a slow subscriber has notifications
// dropped rather than blocking publishers. The stream carries full record
// snapshots at least once, so consumers can treat every message as the
// current state.
type Notifier struct {
	mu     sync.Mutex
	nextID int64
	subs   map[int64]*subscription
	buffer int
}

type subscription struct {
	ch     chan domain.VacationRequest
	filter models.RequestFilter
}

func NewNotifier(buffer int) *Notifier {
	if buffer <= 0 {
		buffer = 16
	}
	return &Notifier{subs: make(map[int64]*subscription), buffer: buffer}
}

// Subscribe registers a watcher for requests matching the filter. The
// returned cancel func must be called on teardown; after cancel the
// channel is closed.
func (n *Notifier) Subscribe(filter models.RequestFilter) (<-chan domain.VacationRequest, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	id := n.nextID
	sub := &subscription{ch: make(chan domain.VacationRequest, n.buffer), filter: filter}
	n.subs[id] = sub

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if s, ok := n.subs[id]; ok {
			delete(n.subs, id)
			close(s.ch)
		}
	}
	return sub.ch, cancel
}

// Publish delivers a snapshot of the request to every matching subscriber.
func (n *Notifier) Publish(req *domain.VacationRequest) {
	if req == nil {
		return
	}
	snapshot := *req

	n.mu.Lock()
	defer n.mu.Unlock()
	for _, sub := range n.subs {
		if !sub.filter.Matches(&snapshot) {
			continue
		}
		select {
		case sub.ch <- snapshot:
		default:
			slog.Warn("Dropping watch notification, subscriber is slow", "request_id", snapshot.ID)
		}
	}
}

// SubscriberCount returns the number of live subscriptions.
func (n *Notifier) SubscriberCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

// StartWatcher polls the store for rows changed by other processes and
// republishes them, so subscribers see writes this instance did not make.
// In-process Submit/Act publish directly; the poll only advances a cursor
// over the modified column. Blocks until the context is cancelled.
func (e *WorkflowEngine) StartWatcher(ctx context.Context, pollInterval time.Duration) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	e.cursor = e.clock.Now().UTC()
	slog.Info("Watcher started", "poll_interval", pollInterval.String())

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Watcher stopping due to context cancel")
			return
		case <-ticker.C:
			e.pollChanged(ctx)
		case <-e.wakeup:
			e.pollChanged(ctx)
		}
	}
}

// Wakeup triggers an immediate poll without waiting for the next tick.
func (e *WorkflowEngine) Wakeup() {
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

func (e *WorkflowEngine) pollChanged(ctx context.Context) {
	if e.notifier.SubscriberCount() == 0 {
		return
	}
	changed, err := e.RequestRepo.FindModifiedSince(e.cursor, 100)
	if err != nil {
		slog.ErrorContext(ctx, "Error polling for changed requests", "error", err)
		return
	}
	if changed == nil {
		return
	}
	for i := range *changed {
		req := &(*changed)[i]
		e.notifier.Publish(req)
		if req.Modified.After(e.cursor) {
			e.cursor = req.Modified
		}
	}
}
