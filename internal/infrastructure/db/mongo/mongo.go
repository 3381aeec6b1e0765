package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	defaultTimeout = 10 * time.Second
	appName        = "profile-service"
)

// Config captures the settings required to reach the account database.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Conn bundles the client with the selected database.
type Conn struct {
	Client  *mongo.Client
	DB      *mongo.Database
	timeout time.Duration
}

// Connect establishes a MongoDB client and verifies connectivity against the
// primary. A default timeout is applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*Conn, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName(appName).
		SetServerSelectionTimeout(timeout)
	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return &Conn{Client: client, DB: client.Database(cfg.Database), timeout: timeout}, nil
}

// Ping backs the readiness probe.
func (c *Conn) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx, readpref.Primary())
}

func (c *Conn) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.Client.Disconnect(ctx)
}
