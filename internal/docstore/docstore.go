// internal/docstore/docstore.go
//
// MongoDB connection holder for the document copy of site records.
//
// Context
// -------
// The document store is optional.  An empty URI, an unreachable cluster,
// or a failed ping must never stop the process; callers ask for the
// collection on each operation and treat apperr.ErrStoreUnavailable as the
// "secondary store down" branch.
//
// Workflow
// --------
//   • New() records settings only.  No network I/O happens at boot.
//   • Collection() returns the cached handle or dials once through a
//     singleflight group so a burst of requests shares one connection
//     attempt.  A failed dial is retried on a later call after
//     retryAfter has elapsed.
//   • Close() disconnects when a client was established.
package docstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/sitecraft/internal/apperr"
)

const retryAfter = 30 * time.Second

// Options mirrors config.DocStore so this package stays import-light.
type Options struct {
	URI            string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
}

// Client lazily connects to MongoDB.  Safe for concurrent use.
type Client struct {
	opts Options
	sfg  singleflight.Group
	dial func(ctx context.Context) (*mongo.Client, error)

	mu         sync.RWMutex
	client     *mongo.Client
	lastFailed time.Time
	lastErr    error
}

// New returns a Client that will dial on first use.
func New(opts Options) *Client {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	c := &Client{opts: opts}
	c.dial = c.dialMongo
	return c
}

// Enabled reports whether a URI was configured at all.
func (c *Client) Enabled() bool { return c != nil && c.opts.URI != "" }

// DatabaseName returns the configured database name.
func (c *Client) DatabaseName() string { return c.opts.Database }

// MaskedURI returns the first 20 characters of the URI for diagnostics.
func (c *Client) MaskedURI() string {
	if !c.Enabled() {
		return "Not configured"
	}
	if len(c.opts.URI) <= 20 {
		return c.opts.URI
	}
	return c.opts.URI[:20] + "..."
}

// Database returns the configured database, connecting when needed.
func (c *Client) Database(ctx context.Context) (*mongo.Database, error) {
	cli, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	return cli.Database(c.opts.Database), nil
}

// Collection returns the site collection, connecting when needed.
func (c *Client) Collection(ctx context.Context) (*mongo.Collection, error) {
	db, err := c.Database(ctx)
	if err != nil {
		return nil, err
	}
	return db.Collection(c.opts.Collection), nil
}

// Close disconnects the underlying client, if any.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil
	}
	err := c.client.Disconnect(ctx)
	c.client = nil
	return err
}

func (c *Client) connect(ctx context.Context) (*mongo.Client, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("document store not configured: %w", apperr.ErrStoreUnavailable)
	}

	c.mu.RLock()
	cli, failed, lastErr := c.client, c.lastFailed, c.lastErr
	c.mu.RUnlock()
	if cli != nil {
		return cli, nil
	}
	if !failed.IsZero() && time.Since(failed) < retryAfter {
		return nil, fmt.Errorf("document store: %v: %w", lastErr, apperr.ErrStoreUnavailable)
	}

	v, err, _ := c.sfg.Do("connect", func() (interface{}, error) {
		// Double-check after singleflight barrier.
		c.mu.RLock()
		if c.client != nil {
			defer c.mu.RUnlock()
			return c.client, nil
		}
		c.mu.RUnlock()

		// The shared dial outlives any single caller's cancellation.
		dialCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.ConnectTimeout)
		defer cancel()
		cli, err := c.dial(dialCtx)

		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			c.lastFailed, c.lastErr = time.Now(), err
			zap.S().Warnw("document store connect failed", "uri", c.MaskedURI(), "err", err)
			return nil, err
		}
		c.client, c.lastFailed, c.lastErr = cli, time.Time{}, nil
		zap.S().Infow("document store online", "database", c.opts.Database, "collection", c.opts.Collection)
		return cli, nil
	})
	if err != nil {
		return nil, fmt.Errorf("document store: %v: %w", err, apperr.ErrStoreUnavailable)
	}
	return v.(*mongo.Client), nil
}

func (c *Client) dialMongo(ctx context.Context) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(c.opts.URI).
		SetServerSelectionTimeout(c.opts.ConnectTimeout)
	cli, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, err
	}
	return cli, nil
}
