package config

import (
	"context"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var (
	cloudClient *mongo.Client
	cloudDB     *mongo.Database

	// cloudUp mirrors the driver's server heartbeat stream. Reading it is a
	// cached check, not a round-trip, which is what the prober wants.
	cloudUp atomic.Bool
)

func GetCloudDB() *mongo.Database {
	return cloudDB
}

// CloudConnected reports the driver's last known connection state.
func CloudConnected() bool {
	return cloudUp.Load()
}

// ConnectCloud establishes the remote-store client. The service must come up
// with or without the cloud, so callers treat an error here as "start offline".
func ConnectCloud(ctx context.Context) error {
	uri := strings.TrimSpace(os.Getenv("CLOUD_MONGO_URI"))
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	dbName := strings.TrimSpace(os.Getenv("CLOUD_DB_NAME"))
	if dbName == "" {
		dbName = "pos_cloud"
	}

	monitor := &event.ServerMonitor{
		ServerHeartbeatSucceeded: func(*event.ServerHeartbeatSucceededEvent) {
			cloudUp.Store(true)
		},
		ServerHeartbeatFailed: func(*event.ServerHeartbeatFailedEvent) {
			cloudUp.Store(false)
		},
	}

	opts := options.Client().
		ApplyURI(uri).
		SetServerMonitor(monitor).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return err
	}
	cloudClient = client
	cloudDB = client.Database(dbName)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		cloudUp.Store(false)
		return err
	}
	cloudUp.Store(true)
	return nil
}

// ReconnectCloud makes one bounded attempt to re-establish the remote store
// connection and refreshes the cached state.
func ReconnectCloud(ctx context.Context) error {
	if cloudClient == nil {
		return ConnectCloud(ctx)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := cloudClient.Ping(pingCtx, readpref.Primary()); err != nil {
		cloudUp.Store(false)
		return err
	}
	cloudUp.Store(true)
	return nil
}

// DisconnectCloud tears the client down on shutdown.
func DisconnectCloud(ctx context.Context) {
	if cloudClient == nil {
		return
	}
	_ = cloudClient.Disconnect(ctx)
	cloudUp.Store(false)
}
