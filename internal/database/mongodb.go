package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gogotex/personstore/internal/config"
	"github.com/gogotex/personstore/pkg/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PeopleCollection is where Person documents live.
const PeopleCollection = "people"

var ErrNoURI = errors.New("mongo uri is empty")

// ConnectMongo opens a connection and returns the client. Caller should call client.Disconnect(ctx).
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	if uri == "" {
		return nil, ErrNoURI
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	clientOpts := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// Handle is the process-wide store connection. It is passed explicitly to
// whatever needs the store; nothing in this module keeps it in a global.
type Handle struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// Open connects once (no retry) and logs the outcome. The error is returned
// to the caller, which decides whether it can keep running without a store.
func Open(ctx context.Context, cfg config.MongoDBConfig) (*Handle, error) {
	client, err := ConnectMongo(ctx, cfg.URI, cfg.Timeout)
	if err != nil {
		logger.Errorf("error connecting to the database: %v", err)
		return nil, err
	}
	logger.Infof("database connected successfully (db=%s)", cfg.Database)
	return &Handle{Client: client, DB: client.Database(cfg.Database)}, nil
}

// People returns the person collection.
func (h *Handle) People() *mongo.Collection {
	return h.DB.Collection(PeopleCollection)
}

func (h *Handle) Close(ctx context.Context) error {
	if h == nil || h.Client == nil {
		return nil
	}
	return h.Client.Disconnect(ctx)
}
