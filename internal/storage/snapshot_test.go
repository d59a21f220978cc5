package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/gogotex/personstore/internal/config"
	"github.com/gogotex/personstore/internal/person"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	key         string
	contentType string
	body        []byte
	uploadErr   error
	presignErr  error
}

func (f *fakeStore) UploadFile(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.key, f.contentType, f.body = key, contentType, b
	return nil
}

func (f *fakeStore) GetPresignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return "https://minio.local/" + key, nil
}

type staticLister struct {
	people []*person.Person
	err    error
}

func (s staticLister) ListPeople(ctx context.Context) ([]*person.Person, error) {
	return s.people, s.err
}

func fixedExporter(l Lister, s ObjectStore) *Exporter {
	e := NewExporter(l, s)
	e.now = func() time.Time { return time.Date(2024, 4, 27, 10, 0, 0, 0, time.UTC) }
	return e
}

func TestExport(t *testing.T) {
	store := &fakeStore{}
	people := []*person.Person{{Name: "Alice", FavoriteFoods: []string{"Sushi"}}, {Name: "Bob", Age: person.Int(35)}}
	snap, err := fixedExporter(staticLister{people: people}, store).Export(context.Background())
	require.NoError(t, err)
	require.Equal(t, "people/20240427T100000Z.json", snap.Key)
	require.Equal(t, 2, snap.Count)
	require.Equal(t, "https://minio.local/people/20240427T100000Z.json", snap.URL)
	require.Equal(t, "application/json", store.contentType)

	var decoded []person.Person
	require.NoError(t, json.Unmarshal(store.body, &decoded))
	require.Len(t, decoded, 2)
	require.Equal(t, "Bob", decoded[1].Name)
}

func TestExportFailures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := fixedExporter(staticLister{err: boom}, &fakeStore{}).Export(ctx)
	require.ErrorIs(t, err, boom)

	_, err = fixedExporter(staticLister{}, &fakeStore{uploadErr: boom}).Export(ctx)
	require.ErrorIs(t, err, boom)

	snap, err := fixedExporter(staticLister{}, &fakeStore{presignErr: boom}).Export(ctx)
	require.NoError(t, err)
	require.Empty(t, snap.URL)
}

func TestNewMinIOStorageRequiresEndpoint(t *testing.T) {
	_, err := NewMinIOStorage(context.Background(), config.MinIOConfig{})
	require.Error(t, err)
}
