package cloudsync

import (
	"context"
	"net"
	"os"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
)

// Prober answers the two layered connectivity questions: is the network up at
// all, and does the remote-store driver currently hold a live connection.
// The second is a cached read, never a round-trip.
type Prober interface {
	NetworkReachable(ctx context.Context) bool
	CloudConnected() bool
	Reconnect(ctx context.Context) error
}

type netProber struct {
	host    string
	timeout time.Duration
}

// NewProber builds the default prober. The network check resolves a
// well-known public host; any resolution error counts as unreachable.
func NewProber() Prober {
	host := strings.TrimSpace(os.Getenv("SYNC_PROBE_HOST"))
	if host == "" {
		host = "google.com"
	}
	return &netProber{host: host, timeout: 5 * time.Second}
}

func (p *netProber) NetworkReachable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	_, err := net.DefaultResolver.LookupHost(ctx, p.host)
	return err == nil
}

func (p *netProber) CloudConnected() bool {
	return config.CloudConnected()
}

func (p *netProber) Reconnect(ctx context.Context) error {
	return config.ReconnectCloud(ctx)
}
