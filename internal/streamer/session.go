package streamer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/celestix/gotgproto"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"
)

const (
	sessionRetries    = 6
	sessionRetryDelay = 2 * time.Second
)

// sessionPool caches one media invoker per datacenter for a single
// worker. The home DC reuses the worker's own transport; foreign DCs get
// a dedicated pooled connection whose setup performs the authorization
// export/import exchange. Sessions live until the process exits.
type sessionPool struct {
	client *gotgproto.Client
	log    *zap.Logger

	mu       sync.Mutex
	invokers map[int]telegram.CloseInvoker
}

func newSessionPool(client *gotgproto.Client, log *zap.Logger) *sessionPool {
	return &sessionPool{
		client:   client,
		log:      log.Named("Sessions"),
		invokers: make(map[int]telegram.CloseInvoker),
	}
}

// api returns a raw API client bound to the given datacenter.
func (p *sessionPool) api(ctx context.Context, dcID int) (*tg.Client, error) {
	if dcID == 0 || dcID == p.client.Config().ThisDC {
		return p.client.API(), nil
	}

	p.mu.Lock()
	if invoker, ok := p.invokers[dcID]; ok {
		p.mu.Unlock()
		return tg.NewClient(invoker), nil
	}
	p.mu.Unlock()

	// Dial outside the lock; the exchange takes network round-trips and
	// must not block sessions to other DCs.
	invoker, err := p.dial(ctx, dcID)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	if existing, ok := p.invokers[dcID]; ok {
		// Lost the race to a concurrent dial; keep the first one.
		p.mu.Unlock()
		_ = invoker.Close()
		return tg.NewClient(existing), nil
	}
	p.invokers[dcID] = invoker
	p.mu.Unlock()

	p.log.Debug("Created media session", zap.Int("dc", dcID))
	return tg.NewClient(invoker), nil
}

// dial opens a connection pool to a foreign DC. The client library runs
// the auth.exportAuthorization / importAuthorization exchange during
// setup; transient failures (invalid auth bytes, transport errors) are
// retried with a fixed pause before giving up.
func (p *sessionPool) dial(ctx context.Context, dcID int) (telegram.CloseInvoker, error) {
	var lastErr error
	for attempt := 1; attempt <= sessionRetries; attempt++ {
		// The wrapper's DC field (home datacenter number) shadows the
		// embedded client's DC method; dial through the embedded client.
		invoker, err := p.client.Client.DC(ctx, dcID, 1)
		if err == nil {
			return invoker, nil
		}
		lastErr = err
		p.log.Debug("Media session dial failed",
			zap.Int("dc", dcID),
			zap.Int("attempt", attempt),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(sessionRetryDelay):
		}
	}
	return nil, fmt.Errorf("%w: dc %d: %v", ErrSessionFailure, dcID, lastErr)
}

func (p *sessionPool) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for dcID, invoker := range p.invokers {
		if err := invoker.Close(); err != nil {
			p.log.Debug("Failed to close media session", zap.Int("dc", dcID), zap.Error(err))
		}
		delete(p.invokers, dcID)
	}
}
