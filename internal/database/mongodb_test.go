package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gogotex/personstore/internal/config"
	"github.com/stretchr/testify/require"
)

func TestConnectMongo_EmptyURI(t *testing.T) {
	_, err := ConnectMongo(context.Background(), "", time.Second)
	require.True(t, errors.Is(err, ErrNoURI))
}

func TestConnectMongo_MalformedURI(t *testing.T) {
	client, err := ConnectMongo(context.Background(), "not-a-mongo-uri", time.Second)
	require.Error(t, err)
	require.Nil(t, client)
}

func TestOpen_UnreachableHostReturnsError(t *testing.T) {
	cfg := config.MongoDBConfig{
		URI:      "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=200&connectTimeoutMS=200",
		Database: "personstore_test",
		Timeout:  500 * time.Millisecond,
	}
	h, err := Open(context.Background(), cfg)
	require.Error(t, err)
	require.Nil(t, h)
}

func TestHandleClose_NilSafe(t *testing.T) {
	var h *Handle
	require.NoError(t, h.Close(context.Background()))
}
