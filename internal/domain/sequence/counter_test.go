package sequence

import (
	"testing"

	"github.com/google/uuid"
	"github.com/possuite/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounter_Next(t *testing.T) {
	c := &Counter{TenantID: uuid.New(), Kind: KindSale}

	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.LastValue)
	assert.False(t, c.UpdatedAt.IsZero())
}

func TestCounter_RaiseTo(t *testing.T) {
	c := &Counter{LastValue: 5}

	assert.False(t, c.RaiseTo(3))
	assert.Equal(t, int64(5), c.LastValue)

	assert.True(t, c.RaiseTo(9))
	assert.Equal(t, int64(9), c.LastValue)
}

func TestParseKind(t *testing.T) {
	for _, k := range KnownKinds {
		parsed, err := ParseKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}

	_, err := ParseKind("invoice")
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrUnknownEntityKind)
	assert.True(t, shared.IsKind(err, shared.KindValidation))
}
