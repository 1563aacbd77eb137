package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNeo4jClient_RequiresURI(t *testing.T) {
	_, err := NewNeo4jClient(context.Background(), Options{})
	assert.ErrorIs(t, err, ErrMissingURI)
}

func TestMemoryClient(t *testing.T) {
	m := NewMemoryClient()
	params := map[string]any{"id": "CUST001"}
	require.NoError(t, m.ExecuteWrite(context.Background(), "MERGE (c:Customer {id: $id})", params))
	params["id"] = "mutated"

	calls := m.WriteCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "CUST001", calls[0].Params["id"])

	boom := errors.New("down")
	m.WithError(boom).WithConnectivityError(boom)
	assert.ErrorIs(t, m.ExecuteWrite(context.Background(), "RETURN 1", nil), boom)
	assert.ErrorIs(t, m.VerifyConnectivity(context.Background()), boom)
}
