package cloudsync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/models"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"gorm.io/gorm"
)

func TestSweepGoesOfflineWhenNetworkUnreachable(t *testing.T) {
	db := newTestDB(t)
	store := newFakeStore()
	w := newTestWorker(t, db, store, &fakeProber{network: false, cloud: true})

	w.RunFullSync(context.Background())

	if got := w.state.snapshot().Status; got != StatusOffline {
		t.Fatalf("status = %s, want offline", got)
	}
	if store.collection("sales").calls != 0 {
		t.Fatal("sweep pushed documents while offline")
	}
}

func TestSweepErrorsWhenCloudDownButNetworkUp(t *testing.T) {
	db := newTestDB(t)
	prober := &fakeProber{network: true, cloud: false, afterRetry: false}
	w := newTestWorker(t, db, newFakeStore(), prober)

	w.RunFullSync(context.Background())

	snap := w.state.snapshot()
	if snap.Status != StatusError {
		t.Fatalf("status = %s, want error (not offline)", snap.Status)
	}
	if snap.LastSyncError == "" {
		t.Fatal("error status carries no reason")
	}
	if prober.reconnectCount() != 1 {
		t.Fatalf("reconnect attempts = %d, want exactly 1", prober.reconnectCount())
	}
}

func TestSweepRecoversAfterSingleReconnect(t *testing.T) {
	db := newTestDB(t)
	prober := &fakeProber{network: true, cloud: false, afterRetry: true}
	w := newTestWorker(t, db, newFakeStore(), prober)
	writeCompanyFile(t, w, "T1")

	w.RunFullSync(context.Background())

	if got := w.state.snapshot().Status; got != StatusSynced {
		t.Fatalf("status = %s, want synced after successful reconnect", got)
	}
}

func TestReentrancyGuard(t *testing.T) {
	db := newTestDB(t)
	w := newTestWorker(t, db, newFakeStore(), &fakeProber{network: true, cloud: true})
	writeCompanyFile(t, w, "T1")

	started := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	loads := 0

	w.registry = []*entityDescriptor{{
		Table:      "slow_things",
		Collection: "slow_things",
		LoadAll: func(ctx context.Context, db *gorm.DB) ([]Document, error) {
			mu.Lock()
			loads++
			first := loads == 1
			mu.Unlock()
			if first {
				close(started)
				<-release
			}
			return nil, nil
		},
	}}

	done := make(chan struct{})
	go func() {
		w.RunFullSync(context.Background())
		close(done)
	}()
	<-started

	// overlapping trigger while the first sweep is mid-flight
	w.RunFullSync(context.Background())

	mu.Lock()
	overlapped := loads
	mu.Unlock()
	if overlapped != 1 {
		t.Fatalf("loader invoked %d times during overlap, want 1", overlapped)
	}

	close(release)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("first sweep never finished")
	}
}

func TestPartialFailureIsolation(t *testing.T) {
	db := newTestDB(t)
	store := newFakeStore()
	w := newTestWorker(t, db, store, &fakeProber{network: true, cloud: true})
	writeCompanyFile(t, w, "T1")

	w.registry = []*entityDescriptor{
		{
			Table:      "broken",
			Collection: "broken",
			LoadAll: func(ctx context.Context, db *gorm.DB) ([]Document, error) {
				return nil, errors.New("disk on fire")
			},
		},
		{
			Table:      "healthy",
			Collection: "healthy",
			LoadAll: func(ctx context.Context, db *gorm.DB) ([]Document, error) {
				return []Document{
					{LocalId: 1, Fields: bson.M{"n": 1}},
					{LocalId: 2, Fields: bson.M{"n": 2}},
				}, nil
			},
		},
	}

	w.RunFullSync(context.Background())

	snap := w.state.snapshot()
	if snap.Status != StatusSynced {
		t.Fatalf("status = %s, want synced despite one failing group", snap.Status)
	}
	if snap.RecordsSynced != 2 {
		t.Fatalf("recordsSynced = %d, want 2 from the healthy group", snap.RecordsSynced)
	}
}

func TestFullSweepPushesSaleWithChildren(t *testing.T) {
	db := newTestDB(t)
	store := newFakeStore()
	w := newTestWorker(t, db, store, &fakeProber{network: true, cloud: true})
	writeCompanyFile(t, w, "T1")

	sale := models.Sale{
		SaleNumber:  "S-0042",
		SaleDate:    "2026-08-30 10:15:00",
		TotalAmount: decimal.NewFromInt(4500),
		SaleStatus:  "completed",
		SyncStatus:  models.SyncStatusPending,
		Items: []models.SaleItem{
			{ProductName: "Mohinga", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(1500)},
			{ProductName: "Tea", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1500)},
		},
		Payments: []models.SalePayment{
			{Method: "cash", Amount: decimal.NewFromInt(4500), Status: "completed"},
		},
	}
	if err := db.Create(&sale).Error; err != nil {
		t.Fatalf("seed sale: %v", err)
	}

	w.RunFullSync(context.Background())

	snap := w.state.snapshot()
	if snap.Status != StatusSynced {
		t.Fatalf("status = %s, want synced", snap.Status)
	}
	if snap.CompanyId != "T1" {
		t.Fatalf("companyId = %q, want T1", snap.CompanyId)
	}
	if snap.RecordsSynced != 1 {
		t.Fatalf("recordsSynced = %d, want 1", snap.RecordsSynced)
	}

	doc, ok := store.collection("sales").doc(int64(sale.ID), "T1")
	if !ok {
		t.Fatal("sale document missing from remote store")
	}
	items := doc["items"].(bson.A)
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	payments := doc["payments"].(bson.A)
	if len(payments) != 1 {
		t.Fatalf("payments = %d, want 1", len(payments))
	}
	if doc["synced_at"] == nil {
		t.Fatal("synced_at not set")
	}
	if doc["sale_date"] == nil {
		t.Fatal("sale_date text was not converted to a timestamp")
	}

	// The bulk sweep never touches per-row flags; only the realtime and
	// queue paths flip them.
	var got models.Sale
	if err := db.Take(&got, sale.ID).Error; err != nil {
		t.Fatalf("reload sale: %v", err)
	}
	if got.SyncStatus != models.SyncStatusPending {
		t.Fatalf("sync_status = %s after bulk sweep, want untouched pending", got.SyncStatus)
	}
}

func TestSweepMemoizesCompanyId(t *testing.T) {
	db := newTestDB(t)
	w := newTestWorker(t, db, newFakeStore(), &fakeProber{network: true, cloud: true})
	writeCompanyFile(t, w, "T1")

	if _, err := w.resolveCompanyId(context.Background()); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	// remove the backing file; the memoized value must survive
	writeCompanyFile(t, w, "changed-on-disk")
	id, err := w.resolveCompanyId(context.Background())
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if id != "T1" {
		t.Fatalf("company id = %q, want memoized T1", id)
	}
}
