package cloudsync

import (
	"sync"
	"time"
)

type SyncStatus string

const (
	StatusIdle    SyncStatus = "idle"
	StatusSyncing SyncStatus = "syncing"
	StatusSynced  SyncStatus = "synced"
	StatusOffline SyncStatus = "offline"
	StatusError   SyncStatus = "error"
)

// Snapshot is the read-only view of sync progress handed to callers. The
// queue counters are derived at read time; everything else is copied from the
// tracker. Status is advisory: a reader may observe a transient mid-sweep
// state.
type Snapshot struct {
	Status          SyncStatus `json:"status"`
	LastSyncAt      *time.Time `json:"lastSyncAt"`
	LastSyncError   string     `json:"lastSyncError"`
	RecordsSynced   int        `json:"recordsSynced"`
	CompanyId       string     `json:"companyId"`
	PendingEntries  int64      `json:"pendingEntries"`
	PoisonedEntries int64      `json:"poisonedEntries"`
}

// stateTracker is the single-writer sync state. Only the worker's own tick
// mutates it; everyone else goes through Snapshot copies.
type stateTracker struct {
	mu            sync.RWMutex
	status        SyncStatus
	lastSyncAt    *time.Time
	lastSyncError string
	recordsSynced int
	companyId     string
}

func newStateTracker() *stateTracker {
	return &stateTracker{status: StatusIdle}
}

func (s *stateTracker) setOffline() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusOffline
}

func (s *stateTracker) setError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusError
	s.lastSyncError = msg
}

func (s *stateTracker) setSyncing() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusSyncing
}

func (s *stateTracker) setSynced(records int) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusSynced
	s.lastSyncAt = &now
	s.recordsSynced = records
	s.lastSyncError = ""
}

func (s *stateTracker) setCompanyId(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.companyId = id
}

func (s *stateTracker) snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Status:        s.status,
		LastSyncError: s.lastSyncError,
		RecordsSynced: s.recordsSynced,
		CompanyId:     s.companyId,
	}
	if s.lastSyncAt != nil {
		at := *s.lastSyncAt
		snap.LastSyncAt = &at
	}
	return snap
}
