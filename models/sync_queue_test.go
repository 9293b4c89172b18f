package models

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newQueueTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test ledger: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test ledger: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&SyncQueueEntry{}, &Product{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestEnqueueSyncEntryReplaces(t *testing.T) {
	db := newQueueTestDB(t)
	ctx := context.Background()

	if err := EnqueueSyncEntry(ctx, db, TableSales, 42); err != nil {
		t.Fatalf("first enqueue: %v", err)
	}
	if err := EnqueueSyncEntry(ctx, db, TableSales, 42); err != nil {
		t.Fatalf("second enqueue: %v", err)
	}

	var entries []SyncQueueEntry
	if err := db.Find(&entries).Error; err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].RetryCount != 0 {
		t.Fatalf("replacement entry kept a retry count")
	}
	if entries[0].Operation != SyncOperationUpsert {
		t.Fatalf("operation = %q", entries[0].Operation)
	}
}

func TestEnqueueSyncEntryKeepsDistinctKeys(t *testing.T) {
	db := newQueueTestDB(t)
	ctx := context.Background()

	if err := EnqueueSyncEntry(ctx, db, TableSales, 1); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := EnqueueSyncEntry(ctx, db, TableSales, 2); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := EnqueueSyncEntry(ctx, db, TableProducts, 1); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	var count int64
	if err := db.Model(&SyncQueueEntry{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Fatalf("entries = %d, want 3", count)
	}
}

func TestEnqueueSyncEntryRejectsInvalidKeys(t *testing.T) {
	db := newQueueTestDB(t)
	ctx := context.Background()

	if err := EnqueueSyncEntry(ctx, db, "", 1); err == nil {
		t.Fatal("empty table name accepted")
	}
	if err := EnqueueSyncEntry(ctx, db, TableSales, 0); err == nil {
		t.Fatal("zero record id accepted")
	}

	var count int64
	if err := db.Model(&SyncQueueEntry{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("entries = %d, want 0", count)
	}
}

func TestPendingSyncEntriesAreFIFO(t *testing.T) {
	db := newQueueTestDB(t)
	ctx := context.Background()

	for _, id := range []uint{10, 11, 12} {
		if err := EnqueueSyncEntry(ctx, db, TableSales, id); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	entries, err := PendingSyncEntries(ctx, db, 2)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("batch = %d, want 2", len(entries))
	}
	if entries[0].RecordId != 10 || entries[1].RecordId != 11 {
		t.Fatalf("batch order = %d,%d, want oldest first", entries[0].RecordId, entries[1].RecordId)
	}
}

func TestSetRowSyncStatusIgnoresBulkOnlyTables(t *testing.T) {
	db := newQueueTestDB(t)
	if err := SetRowSyncStatus(context.Background(), db, "settings", 1, SyncStatusPending); err != nil {
		t.Fatalf("bulk-only table update should be a no-op, got %v", err)
	}
}

func TestRecordSyncEntryFailureIncrements(t *testing.T) {
	db := newQueueTestDB(t)
	ctx := context.Background()

	if err := EnqueueSyncEntry(ctx, db, TableSales, 7); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	var entry SyncQueueEntry
	if err := db.Take(&entry).Error; err != nil {
		t.Fatalf("load: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := RecordSyncEntryFailure(ctx, db, entry.ID); err != nil {
			t.Fatalf("record failure: %v", err)
		}
	}

	if err := db.Take(&entry, entry.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if entry.RetryCount != 2 {
		t.Fatalf("retry_count = %d, want 2", entry.RetryCount)
	}
	if entry.LastAttempt == nil {
		t.Fatal("last_attempt not stamped")
	}
}
