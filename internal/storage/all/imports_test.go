package all

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dwh/internal/storage"
)

func TestAllKindsRegistered(t *testing.T) {
	assert.Equal(t, []string{"mssql", "mysql", "postgres", "redshift", "sqlite"}, storage.Kinds())

	for _, kind := range storage.Kinds() {
		d, err := storage.DialectFor(kind)
		require.NoError(t, err, kind)
		assert.Equal(t, kind, d.Name())
	}
}
