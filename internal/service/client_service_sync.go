package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dishcraft/menusync/internal/adapter"
	"github.com/dishcraft/menusync/internal/logger"
	"github.com/dishcraft/menusync/internal/optimizer"
	"github.com/dishcraft/menusync/internal/store"
	"github.com/dishcraft/menusync/models"
)

// ErrPayloadUnshrinkable is recorded when even the minimal representation of
// an item does not fit the payload budget. The item is marked problematic;
// only a user edit can change its fate.
var ErrPayloadUnshrinkable = errors.New("payload cannot be reduced to fit the budget")

// backoffSchedule spaces retries of a recoverable failure. An item that has
// failed n times is not retried before backoffSchedule[n-1] has elapsed; the
// last value repeats for any further attempts.
var backoffSchedule = []time.Duration{5 * time.Second, 15 * time.Second, 30 * time.Second}

// attemptState is the in-memory failure bookkeeping for one item. It is
// deliberately not persisted: a process restart grants every item a fresh
// retry budget, which is the desired behavior after the operator intervened.
type attemptState struct {
	count         int
	nextAttemptAt time.Time
}

type syncEngine struct {
	store     store.LocalStore
	gateway   adapter.RemoteGateway
	optimizer *optimizer.Optimizer
	logger    *logger.Logger

	maxAttempts int
	now         func() time.Time

	// inFlight guards the single-pass invariant: concurrent SyncNow calls
	// coalesce into the pass already running.
	inFlight atomic.Bool

	mu       sync.Mutex
	attempts map[string]*attemptState
}

// NewSyncEngine creates the [SyncService] that drains the local mutation queue
// towards the remote store, degrading payloads and backing off on failure.
func NewSyncEngine(localStore store.LocalStore, gateway adapter.RemoteGateway, opt *optimizer.Optimizer, maxAttempts int, logger *logger.Logger) SyncService {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	return &syncEngine{
		store:       localStore,
		gateway:     gateway,
		optimizer:   opt,
		logger:      logger,
		maxAttempts: maxAttempts,
		now:         func() time.Time { return time.Now().UTC() },
		attempts:    make(map[string]*attemptState),
	}
}

// SyncNow implements [SyncService]. It runs one pass over the mutation queue
// in FIFO order. When a pass is already in flight the call returns nil
// immediately: the running pass will pick up whatever this caller wanted
// pushed, because every entry re-reads the latest local state before sending.
func (s *syncEngine) SyncNow(ctx context.Context) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil
	}
	defer s.inFlight.Store(false)

	log := logger.FromContext(ctx)

	s.selfHeal(ctx)

	entries, err := s.store.ListQueue(ctx)
	if err != nil {
		log.Err(err).Str("func", "syncEngine.SyncNow").Msg("failed to list sync queue")
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	log.Debug().Int("entries", len(entries)).Msg("sync pass started")

	for _, entry := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.processEntry(ctx, entry)
	}

	return nil
}

// ResetAttempts implements [SyncService].
func (s *syncEngine) ResetAttempts(id string) {
	s.mu.Lock()
	delete(s.attempts, id)
	s.mu.Unlock()
}

// processEntry pushes one queue entry to the remote store. All outcomes are
// absorbed into local state (synced, rescheduled, or problematic); an error is
// never propagated, so one bad item cannot stall the rest of the queue.
func (s *syncEngine) processEntry(ctx context.Context, entry models.QueueEntry) {
	log := logger.FromContext(ctx)

	if !s.due(entry.EntityID) {
		return
	}

	// the snapshot may be stale; the latest local state decides what is sent
	item, err := s.store.GetItem(ctx, entry.EntityID)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			// the item vanished locally; the entry is garbage
			_ = s.dequeue(ctx, entry)
			return
		}
		log.Err(err).Str("item_id", entry.EntityID).Msg("failed to read item for sync")
		return
	}

	if item.Problematic {
		// waits for a user edit, which clears the flag and resets attempts
		return
	}

	if item.SyncStatus == models.SyncStatusPendingDeletion {
		s.pushDelete(ctx, entry, item)
		return
	}

	s.pushUpsert(ctx, entry, item)
}

func (s *syncEngine) pushDelete(ctx context.Context, entry models.QueueEntry, item models.Item) {
	log := logger.FromContext(ctx)

	if err := s.gateway.DeleteItem(ctx, item.ID); err != nil {
		s.handleSendError(ctx, item.ID, err)
		return
	}

	// remote confirmed (or never had the item); drop it locally for good
	if err := s.store.DeleteItem(ctx, item.ID); err != nil {
		log.Err(err).Str("item_id", item.ID).Msg("failed to remove item after remote deletion")
		return
	}

	s.ResetAttempts(item.ID)
	log.Info().Str("item_id", item.ID).Msg("item deleted remotely and removed locally")
}

func (s *syncEngine) pushUpsert(ctx context.Context, entry models.QueueEntry, item models.Item) {
	log := logger.FromContext(ctx)

	payload, err := s.shrinkToBudget(item)
	if err != nil {
		log.Warn().Str("item_id", item.ID).Msg("item cannot fit the payload budget even in minimal form")
		s.markProblematic(ctx, item.ID)
		return
	}

	if err = s.send(ctx, payload); err != nil {
		s.handleSendError(ctx, item.ID, err)
		return
	}

	if err = s.store.MarkSynced(ctx, item.ID); err != nil {
		log.Err(err).Str("item_id", item.ID).Msg("failed to mark item synced")
		return
	}
	if err = s.dequeue(ctx, entry); err != nil {
		return
	}

	s.ResetAttempts(item.ID)
	log.Info().Str("item_id", item.ID).Bool("image_dropped", payload.ImageDropped).Msg("item synced")
}

// shrinkToBudget applies the optimization ladder until the payload fits the
// local budget.
func (s *syncEngine) shrinkToBudget(item models.Item) (models.Item, error) {
	payload := s.optimizer.Optimize(item)
	if s.optimizer.Fits(payload) {
		return payload, nil
	}

	payload = s.optimizer.DropImage(payload)
	if s.optimizer.Fits(payload) {
		return payload, nil
	}

	payload = s.optimizer.Minimal(payload)
	if s.optimizer.Fits(payload) {
		return payload, nil
	}

	return models.Item{}, ErrPayloadUnshrinkable
}

// send pushes the payload, escalating the optimization ladder when the remote
// ceiling turns out to be stricter than the local budget. Ladder escalation
// does not consume retry attempts: a 413 is a payload problem, not a
// transient failure.
func (s *syncEngine) send(ctx context.Context, payload models.Item) error {
	for level := 0; ; level++ {
		err := s.gateway.UpsertItem(ctx, payload)
		if err == nil || !errors.Is(err, adapter.ErrPayloadTooLarge) {
			return err
		}

		switch {
		case level == 0 && payload.Image != "":
			payload = s.optimizer.DropImage(payload)
		case level <= 1:
			payload = s.optimizer.Minimal(payload)
		default:
			return ErrPayloadUnshrinkable
		}
	}
}

func (s *syncEngine) handleSendError(ctx context.Context, id string, err error) {
	log := logger.FromContext(ctx)

	switch {
	case errors.Is(err, adapter.ErrValidation), errors.Is(err, ErrPayloadUnshrinkable):
		// retrying an unchanged payload cannot succeed
		log.Warn().Str("item_id", id).Err(err).Msg("remote rejected item payload")
		s.markProblematic(ctx, id)

	case errors.Is(err, adapter.ErrNetwork), errors.Is(err, adapter.ErrServer):
		s.recordFailure(ctx, id)
		log.Warn().Str("item_id", id).Err(err).Msg("recoverable sync failure")

	default:
		s.recordFailure(ctx, id)
		log.Err(err).Str("item_id", id).Msg("unexpected sync failure")
	}
}

// recordFailure advances the retry bookkeeping for an item and marks it
// problematic once the attempt budget is exhausted.
func (s *syncEngine) recordFailure(ctx context.Context, id string) {
	s.mu.Lock()
	st, ok := s.attempts[id]
	if !ok {
		st = &attemptState{}
		s.attempts[id] = st
	}
	st.count++
	exhausted := st.count >= s.maxAttempts
	if !exhausted {
		idx := st.count - 1
		if idx >= len(backoffSchedule) {
			idx = len(backoffSchedule) - 1
		}
		st.nextAttemptAt = s.now().Add(backoffSchedule[idx])
	}
	s.mu.Unlock()

	if exhausted {
		s.markProblematic(ctx, id)
	}
}

func (s *syncEngine) markProblematic(ctx context.Context, id string) {
	log := logger.FromContext(ctx)

	s.ResetAttempts(id)
	if err := s.store.SetProblematic(ctx, id, true); err != nil && !errors.Is(err, store.ErrItemNotFound) {
		log.Err(err).Str("item_id", id).Msg("failed to flag item as problematic")
	}
}

// due reports whether the item's backoff window has elapsed.
func (s *syncEngine) due(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.attempts[id]
	if !ok {
		return true
	}
	return !s.now().Before(st.nextAttemptAt)
}

func (s *syncEngine) dequeue(ctx context.Context, entry models.QueueEntry) error {
	log := logger.FromContext(ctx)

	// synthesized self-heal entries carry no queue row
	if entry.ID == 0 {
		return nil
	}

	if err := s.store.Dequeue(ctx, entry.ID); err != nil && !errors.Is(err, store.ErrQueueEntryNotFound) {
		log.Err(err).Int64("entry_id", entry.ID).Msg("failed to dequeue entry")
		return err
	}
	return nil
}

// selfHeal re-enqueues items that are pending but lost their queue entry
// (e.g. after a lost or corrupted queue row). Repairs are written to the store
// before the queue is listed, so the same pass already processes them.
func (s *syncEngine) selfHeal(ctx context.Context) {
	log := logger.FromContext(ctx)

	orphans, err := s.store.ListUnqueuedPending(ctx)
	if err != nil {
		log.Err(err).Str("func", "syncEngine.selfHeal").Msg("failed to scan for orphaned pending items")
		return
	}

	for _, item := range orphans {
		op := models.OperationUpdate
		if item.SyncStatus == models.SyncStatusPendingDeletion {
			op = models.OperationDelete
		}

		if err = s.store.Enqueue(ctx, models.QueueEntry{
			OperationType:   op,
			EntityID:        item.ID,
			PayloadSnapshot: item,
			EnqueuedAt:      s.now(),
		}); err != nil {
			log.Err(err).Str("item_id", item.ID).Msg("failed to re-enqueue orphaned item")
			continue
		}

		log.Warn().Str("item_id", item.ID).Str("operation", string(op)).Msg("re-enqueued orphaned pending item")
	}
}
