package cloudsync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
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
	// keep the single in-memory database on one connection
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.Sale{}, &models.SaleItem{}, &models.SalePayment{},
		&models.Product{}, &models.Customer{}, &models.Order{},
		&models.Expense{}, &models.Purchase{}, &models.PurchaseItem{},
		&models.RawInventory{}, &models.FinishedInventory{},
		&models.User{}, &models.Setting{}, &models.License{},
		&models.SyncQueueEntry{},
	)
	if err != nil {
		t.Fatalf("migrate test ledger: %v", err)
	}
	return db
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// fakeCollection implements bulkWriter over an in-memory document map keyed
// by "localID|companyID". Individual writes are rejected per local id to
// exercise the partial-bulk path.
type fakeCollection struct {
	mu     sync.Mutex
	docs   map[string]bson.M
	fail   bool
	reject map[int64]bool
	calls  int
}

func newFakeCollection() *fakeCollection {
	return &fakeCollection{docs: map[string]bson.M{}, reject: map[int64]bool{}}
}

func (c *fakeCollection) BulkWrite(ctx context.Context, writes []mongo.WriteModel, opts ...*options.BulkWriteOptions) (*mongo.BulkWriteResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.fail {
		return nil, errors.New("connection reset by peer")
	}

	res := &mongo.BulkWriteResult{}
	var writeErrs []mongo.BulkWriteError
	for i, wm := range writes {
		upd, ok := wm.(*mongo.UpdateOneModel)
		if !ok {
			return nil, errors.New("unexpected write model")
		}
		filter := upd.Filter.(bson.M)
		set := upd.Update.(bson.M)["$set"].(bson.M)
		localID := filter["local_id"].(int64)
		key := fmt.Sprintf("%v|%v", localID, filter["company_id"])

		if c.reject[localID] {
			writeErrs = append(writeErrs, mongo.BulkWriteError{
				WriteError: mongo.WriteError{Index: i, Code: 112, Message: "write conflict"},
			})
			continue
		}

		existing, found := c.docs[key]
		if !found {
			c.docs[key] = cloneDoc(set)
			res.UpsertedCount++
			continue
		}
		res.MatchedCount++
		if !reflect.DeepEqual(withoutSyncedAt(existing), withoutSyncedAt(set)) {
			c.docs[key] = cloneDoc(set)
			res.ModifiedCount++
		}
	}
	if len(writeErrs) > 0 {
		return res, mongo.BulkWriteException{WriteErrors: writeErrs}
	}
	return res, nil
}

func (c *fakeCollection) rejectLocalId(localID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reject[localID] = true
}

func cloneDoc(in bson.M) bson.M {
	out := bson.M{}
	for k, v := range in {
		out[k] = v
	}
	return out
}

func withoutSyncedAt(in bson.M) bson.M {
	out := cloneDoc(in)
	delete(out, "synced_at")
	return out
}

func (c *fakeCollection) doc(localID int64, companyID string) (bson.M, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.docs[fmt.Sprintf("%d|%s", localID, companyID)]
	return d, ok
}

func (c *fakeCollection) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.docs)
}

type fakeStore struct {
	mu    sync.Mutex
	colls map[string]*fakeCollection
}

func newFakeStore() *fakeStore {
	return &fakeStore{colls: map[string]*fakeCollection{}}
}

func (s *fakeStore) Collection(name string) bulkWriter {
	s.mu.Lock()
	defer s.mu.Unlock()
	coll, ok := s.colls[name]
	if !ok {
		coll = newFakeCollection()
		s.colls[name] = coll
	}
	return coll
}

func (s *fakeStore) collection(name string) *fakeCollection {
	return s.Collection(name).(*fakeCollection)
}

func (s *fakeStore) failAll(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, coll := range s.colls {
		coll.mu.Lock()
		coll.fail = fail
		coll.mu.Unlock()
	}
}

// fakeProber scripts the two connectivity layers.
type fakeProber struct {
	mu         sync.Mutex
	network    bool
	cloud      bool
	afterRetry bool
	reconnects int
}

func (p *fakeProber) NetworkReachable(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.network
}

func (p *fakeProber) CloudConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cloud
}

func (p *fakeProber) Reconnect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reconnects++
	p.cloud = p.afterRetry
	if !p.cloud {
		return errors.New("server selection timeout")
	}
	return nil
}

func (p *fakeProber) reconnectCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reconnects
}

func newTestWorker(t *testing.T, db *gorm.DB, store CloudStore, prober Prober) *Worker {
	t.Helper()
	companyFile := filepath.Join(t.TempDir(), "company_id")
	return &Worker{
		DB:            db,
		Store:         store,
		Logger:        quietLogger(),
		Prober:        prober,
		Tenant:        &TenantResolver{DB: db, FilePath: companyFile},
		StartupDelay:  time.Millisecond,
		Interval:      time.Hour,
		ReconnectWait: time.Millisecond,
		DrainBatch:    50,
		registry:      defaultRegistry(),
		state:         newStateTracker(),
	}
}

func writeCompanyFile(t *testing.T, w *Worker, id string) {
	t.Helper()
	if err := os.WriteFile(w.Tenant.FilePath, []byte(id+"\n"), 0o600); err != nil {
		t.Fatalf("seed company id: %v", err)
	}
}
