package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"gorm.io/gorm"
)

// SyncQueueEntry is the durable outbox. At most one live entry exists per
// (table_name, record_id); Enqueue replaces, it never appends.
type SyncQueueEntry struct {
	ID          uint       `gorm:"primary_key" json:"id"`
	TableName   string     `gorm:"size:50;index:idx_sync_queue_key;not null" json:"table_name" validate:"required,max=50"`
	RecordId    uint       `gorm:"index:idx_sync_queue_key;not null" json:"record_id" validate:"required"`
	Operation   string     `gorm:"size:20;default:upsert" json:"operation" validate:"required,oneof=upsert"`
	RetryCount  int        `gorm:"default:0;index" json:"retry_count"`
	CreatedAt   time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	LastAttempt *time.Time `json:"last_attempt"`
}

// EnqueueSyncEntry inserts a fresh outbox entry for (table, recordID),
// removing any existing entry for the same key first.
func EnqueueSyncEntry(ctx context.Context, db *gorm.DB, table string, recordID uint) error {
	entry := SyncQueueEntry{
		TableName: table,
		RecordId:  recordID,
		Operation: SyncOperationUpsert,
	}
	if err := utils.ValidateStruct(&entry); err != nil {
		return err
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("table_name = ? AND record_id = ?", table, recordID).
			Delete(&SyncQueueEntry{}).Error; err != nil {
			return err
		}
		return tx.Create(&entry).Error
	})
}

// PendingSyncEntries returns up to batchSize drain candidates, oldest first.
// Poisoned entries (retry_count >= MaxSyncRetries) are excluded.
func PendingSyncEntries(ctx context.Context, db *gorm.DB, batchSize int) ([]SyncQueueEntry, error) {
	var entries []SyncQueueEntry
	err := db.WithContext(ctx).
		Where("retry_count < ?", MaxSyncRetries).
		Order("created_at ASC").
		Limit(batchSize).
		Find(&entries).Error
	return entries, err
}

// RecordSyncEntryFailure bumps the retry counter and stamps the attempt,
// leaving the entry for the next drain.
func RecordSyncEntryFailure(ctx context.Context, db *gorm.DB, entryID uint) error {
	now := time.Now()
	return db.WithContext(ctx).
		Model(&SyncQueueEntry{}).
		Where("id = ?", entryID).
		Updates(map[string]interface{}{
			"retry_count":  gorm.Expr("retry_count + 1"),
			"last_attempt": &now,
		}).Error
}

// DeleteSyncEntry removes a drained entry.
func DeleteSyncEntry(ctx context.Context, db *gorm.DB, entryID uint) error {
	return db.WithContext(ctx).Delete(&SyncQueueEntry{}, entryID).Error
}

// CountSyncEntries returns (pending, poisoned) outbox totals for the status
// snapshot.
func CountSyncEntries(ctx context.Context, db *gorm.DB) (int64, int64, error) {
	var pending, poisoned int64
	if err := db.WithContext(ctx).
		Model(&SyncQueueEntry{}).
		Where("retry_count < ?", MaxSyncRetries).
		Count(&pending).Error; err != nil {
		return 0, 0, err
	}
	if err := db.WithContext(ctx).
		Model(&SyncQueueEntry{}).
		Where("retry_count >= ?", MaxSyncRetries).
		Count(&poisoned).Error; err != nil {
		return pending, 0, err
	}
	return pending, poisoned, nil
}

// SetRowSyncStatus flips the per-row sync flag on a queue-eligible table and
// bumps its updated_at text timestamp.
func SetRowSyncStatus(ctx context.Context, db *gorm.DB, table string, recordID uint, status SyncStatus) error {
	if !IsQueueEligible(table) {
		return nil
	}
	updates := map[string]interface{}{
		"sync_status": string(status),
	}
	if status == SyncStatusPending {
		updates["updated_at"] = utils.NowLocalText()
	}
	return db.WithContext(ctx).
		Table(table).
		Where("id = ?", recordID).
		Updates(updates).Error
}
