package cloudsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/models"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

var errRecordGone = errors.New("record no longer exists")

// Worker owns the sync state machine. One per process; Start is idempotent.
type Worker struct {
	DB     *gorm.DB
	Store  CloudStore
	Logger *logrus.Logger
	Prober Prober
	Tenant *TenantResolver

	StartupDelay  time.Duration
	Interval      time.Duration
	ReconnectWait time.Duration
	DrainBatch    int

	registry []*entityDescriptor

	state     *stateTracker
	syncing   atomic.Bool
	startOnce sync.Once

	tenantMu  sync.Mutex
	companyId string
}

func NewWorker(db *gorm.DB, cloud *mongo.Database, logger *logrus.Logger) *Worker {
	return &Worker{
		DB:            db,
		Store:         NewCloudStore(cloud),
		Logger:        logger,
		Prober:        NewProber(),
		Tenant:        NewTenantResolver(db, config.DataDir()),
		StartupDelay:  utils.DurationFromEnvSeconds("SYNC_STARTUP_DELAY_SECONDS", 10*time.Second),
		Interval:      utils.DurationFromEnvSeconds("SYNC_INTERVAL_SECONDS", 60*time.Second),
		ReconnectWait: time.Second,
		DrainBatch:    50,
		registry:      defaultRegistry(),
		state:         newStateTracker(),
	}
}

// Start begins the periodic full sweep. Safe to call once the ledger and the
// cloud client are initialized; further calls are no-ops.
func (w *Worker) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		go w.run(ctx)
	})
}

func (w *Worker) run(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(w.StartupDelay):
	}
	w.RunFullSync(ctx)

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.RunFullSync(ctx)
		}
	}
}

// RunFullSync is one sweep of the state machine. It never lets a failure
// escape; everything is reported through the state tracker.
func (w *Worker) RunFullSync(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			w.state.setError(fmt.Sprintf("sync tick panicked: %v", r))
		}
	}()

	if !w.Prober.NetworkReachable(ctx) {
		w.state.setOffline()
		return
	}

	if !w.Prober.CloudConnected() {
		// One reconnect attempt, then a fixed wait before rechecking. A store
		// that stays down with the network up is an error, not offline.
		if err := w.Prober.Reconnect(ctx); err != nil {
			config.LogError(w.Logger, "cloudsync", "RunFullSync", "reconnect", nil, err)
		}
		time.Sleep(w.ReconnectWait)
		if !w.Prober.CloudConnected() {
			w.state.setError("cloud store disconnected while network is reachable")
			return
		}
	}

	// Reentrancy guard: a previous sweep still running wins.
	if !w.syncing.CompareAndSwap(false, true) {
		return
	}
	defer w.syncing.Store(false)

	w.state.setSyncing()

	companyID, err := w.resolveCompanyId(ctx)
	if err != nil {
		w.state.setError("company id resolution failed: " + err.Error())
		return
	}

	total := w.syncAllEntities(ctx, companyID)
	w.state.setSynced(total)

	// The connection just proved itself; flush whatever accumulated while
	// we were offline.
	w.drainQueue(ctx, companyID)
}

// syncAllEntities fans out one goroutine per entity kind and waits for all of
// them. A failing kind is logged and skipped; the others still count.
func (w *Worker) syncAllEntities(ctx context.Context, companyID string) int {
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for _, desc := range w.registry {
		desc := desc
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					w.Logger.WithFields(logrus.Fields{
						"module": "cloudsync",
						"table":  desc.Table,
					}).Errorf("entity sync panicked: %v", r)
				}
			}()

			docs, err := desc.LoadAll(ctx, w.DB)
			if err != nil {
				config.LogError(w.Logger, "cloudsync", "syncAllEntities", desc.Table, nil, err)
				return
			}
			count, err := upsertDocuments(ctx, w.Store.Collection(desc.Collection), docs, companyID)
			if err != nil {
				config.LogError(w.Logger, "cloudsync", "syncAllEntities", desc.Table, nil, err)
				return
			}
			mu.Lock()
			total += count
			mu.Unlock()
		}()
	}
	wg.Wait()
	return total
}

// drainQueue re-pushes queued records oldest-first, honoring the retry
// budget. Only runs at the tail of a successful sweep.
func (w *Worker) drainQueue(ctx context.Context, companyID string) {
	entries, err := models.PendingSyncEntries(ctx, w.DB, w.DrainBatch)
	if err != nil {
		config.LogError(w.Logger, "cloudsync", "drainQueue", "select", nil, err)
		return
	}
	for _, entry := range entries {
		err := w.resyncRecord(ctx, entry.TableName, entry.RecordId, companyID)
		if err != nil {
			if errors.Is(err, errRecordGone) {
				// The local row was deleted after enqueue; nothing can ever
				// be pushed for it.
				_ = models.DeleteSyncEntry(ctx, w.DB, entry.ID)
				continue
			}
			if ferr := models.RecordSyncEntryFailure(ctx, w.DB, entry.ID); ferr != nil {
				config.LogError(w.Logger, "cloudsync", "drainQueue", "bookkeeping", entry.ID, ferr)
			}
			w.Logger.WithFields(logrus.Fields{
				"module":    "cloudsync",
				"table":     entry.TableName,
				"record_id": entry.RecordId,
				"retries":   entry.RetryCount + 1,
			}).Error("queue drain push failed: " + err.Error())
			continue
		}
		_ = models.DeleteSyncEntry(ctx, w.DB, entry.ID)
		if serr := models.SetRowSyncStatus(ctx, w.DB, entry.TableName, entry.RecordId, models.SyncStatusSynced); serr != nil {
			config.LogError(w.Logger, "cloudsync", "drainQueue", "mark synced", entry.RecordId, serr)
		}
	}
}

// resyncRecord maps and pushes a single ledger row.
func (w *Worker) resyncRecord(ctx context.Context, table string, recordID uint, companyID string) error {
	desc := w.descriptorFor(table)
	if desc == nil || desc.LoadOne == nil {
		return fmt.Errorf("table %s cannot be synced record by record", table)
	}
	doc, err := desc.LoadOne(ctx, w.DB, recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errRecordGone
		}
		return err
	}
	_, err = upsertDocuments(ctx, w.Store.Collection(desc.Collection), []Document{doc}, companyID)
	return err
}

func (w *Worker) descriptorFor(table string) *entityDescriptor {
	for _, desc := range w.registry {
		if desc.Table == table {
			return desc
		}
	}
	return nil
}

func (w *Worker) resolveCompanyId(ctx context.Context) (string, error) {
	w.tenantMu.Lock()
	defer w.tenantMu.Unlock()
	if w.companyId != "" {
		return w.companyId, nil
	}
	id, err := w.Tenant.Resolve(ctx)
	if err != nil {
		return "", err
	}
	w.companyId = id
	w.state.setCompanyId(id)
	return id, nil
}

// EnqueueForSync records a committed local write in the outbox and flips the
// source row to pending. Called from write handlers; never raises.
func (w *Worker) EnqueueForSync(table string, recordID uint) {
	if !models.IsQueueEligible(table) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := models.EnqueueSyncEntry(ctx, w.DB, table, recordID); err != nil {
		config.LogError(w.Logger, "cloudsync", "EnqueueForSync", table, recordID, err)
		return
	}
	// Best effort: a failed status flip must not fail the enqueue.
	if err := models.SetRowSyncStatus(ctx, w.DB, table, recordID, models.SyncStatusPending); err != nil {
		config.LogError(w.Logger, "cloudsync", "EnqueueForSync", "mark pending", recordID, err)
	}
}

// RequestImmediateSync pushes one record right after its write, as a detached
// task. Failures are logged at this boundary and dropped; the full sweep
// catches the row later since its status stays pending.
func (w *Worker) RequestImmediateSync(table string, recordID uint) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				w.Logger.WithFields(logrus.Fields{
					"module": "cloudsync",
					"table":  table,
				}).Errorf("realtime push panicked: %v", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if !w.Prober.NetworkReachable(ctx) {
			return
		}
		if !w.Prober.CloudConnected() {
			return
		}
		companyID, err := w.resolveCompanyId(ctx)
		if err != nil {
			config.LogError(w.Logger, "cloudsync", "RequestImmediateSync", "tenant", nil, err)
			return
		}
		if err := w.resyncRecord(ctx, table, recordID, companyID); err != nil {
			if !errors.Is(err, errRecordGone) {
				w.Logger.WithFields(logrus.Fields{
					"module":    "cloudsync",
					"table":     table,
					"record_id": recordID,
				}).Error("realtime push failed: " + err.Error())
			}
			return
		}
		if err := models.SetRowSyncStatus(ctx, w.DB, table, recordID, models.SyncStatusSynced); err != nil {
			config.LogError(w.Logger, "cloudsync", "RequestImmediateSync", "mark synced", recordID, err)
		}
	}()
}

// Status returns the advisory snapshot plus derived outbox counters.
func (w *Worker) Status(ctx context.Context) Snapshot {
	snap := w.state.snapshot()
	pending, poisoned, err := models.CountSyncEntries(ctx, w.DB)
	if err != nil {
		config.LogError(w.Logger, "cloudsync", "Status", "queue counts", nil, err)
		return snap
	}
	snap.PendingEntries = pending
	snap.PoisonedEntries = poisoned
	return snap
}

// package-level entry points for the write handlers, wired to the process
// worker by Activate.

var activeWorker atomic.Pointer[Worker]

func Activate(w *Worker) {
	activeWorker.Store(w)
}

func EnqueueForSync(table string, recordID uint) {
	if w := activeWorker.Load(); w != nil {
		w.EnqueueForSync(table, recordID)
	}
}

func RequestImmediateSync(table string, recordID uint) {
	if w := activeWorker.Load(); w != nil {
		w.RequestImmediateSync(table, recordID)
	}
}

func Status(ctx context.Context) Snapshot {
	if w := activeWorker.Load(); w != nil {
		return w.Status(ctx)
	}
	return Snapshot{Status: StatusIdle}
}
