package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gogotex/personstore/internal/person"
	"github.com/gogotex/personstore/pkg/logger"
)

// ObjectStore is the part of MinIOStorage the exporter needs.
type ObjectStore interface {
	UploadFile(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	GetPresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// Lister yields the documents to export.
type Lister interface {
	ListPeople(ctx context.Context) ([]*person.Person, error)
}

// Snapshot describes one uploaded export.
type Snapshot struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
	URL   string `json:"url"`
}

// Exporter writes the whole person collection to object storage as a JSON array.
type Exporter struct {
	people  Lister
	store   ObjectStore
	linkTTL time.Duration
	now     func() time.Time
}

func NewExporter(people Lister, store ObjectStore) *Exporter {
	return &Exporter{people: people, store: store, linkTTL: 15 * time.Minute, now: time.Now}
}

// Export uploads people/<timestamp>.json and returns its key and a presigned link.
func (e *Exporter) Export(ctx context.Context) (*Snapshot, error) {
	people, err := e.people.ListPeople(ctx)
	if err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	body, err := json.Marshal(people)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	key := fmt.Sprintf("people/%s.json", e.now().UTC().Format("20060102T150405Z"))
	if err := e.store.UploadFile(ctx, key, bytes.NewReader(body), int64(len(body)), "application/json"); err != nil {
		return nil, fmt.Errorf("upload snapshot: %w", err)
	}
	link, err := e.store.GetPresignedURL(ctx, key, e.linkTTL)
	if err != nil {
		// the object is stored; only the link is missing
		logger.Warnf("snapshot %s uploaded but presign failed: %v", key, err)
	}
	logger.Infof("snapshot %s: %d people", key, len(people))
	return &Snapshot{Key: key, Count: len(people), URL: link}, nil
}
