package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/gogotex/personstore/internal/person"
	"github.com/gogotex/personstore/internal/person/repository"
	"github.com/gogotex/personstore/internal/person/service"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCreate_Memory(t *testing.T) {
	out, err := run(t, "--memory", "create")
	require.NoError(t, err)

	var p map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	require.Equal(t, "John Doe", p["name"])
	require.NotEmpty(t, p["id"])
}

func TestDeleteMany_Memory_EmptyStore(t *testing.T) {
	out, err := run(t, "--memory", "delete-many")
	require.NoError(t, err)
	require.JSONEq(t, `{"deletedCount":0}`, out)
}

func TestFindByID_BadIDDoesNotFail(t *testing.T) {
	out, err := run(t, "--memory", "find-by-id", "nope")
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestArgsValidated(t *testing.T) {
	_, err := run(t, "--memory", "find-by-id")
	require.Error(t, err)
	_, err = run(t, "--memory", "create", "extra")
	require.Error(t, err)
}

func TestMongoWithoutURIFails(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	t.Setenv("MONGODB_URI", "")
	_, err := run(t, "create")
	require.Error(t, err)
}

func TestRunAll(t *testing.T) {
	svc := service.NewService(repository.NewMemoryRepo())
	var out bytes.Buffer
	runAll(context.Background(), svc, &out)

	var lovers []map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &lovers))
	require.Len(t, lovers, 2)
	require.Equal(t, "Carl", lovers[0]["name"])
	require.Equal(t, "Zoe", lovers[1]["name"])
	for _, l := range lovers {
		require.NotContains(t, l, "id")
	}

	// John was deleted, Mary was deleted, Alice and Bob remain with the seeded two
	n, err := svc.Count(context.Background(), person.Filter{})
	require.NoError(t, err)
	require.Equal(t, int64(4), n)
}
