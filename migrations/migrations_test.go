package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionsAreOrdered(t *testing.T) {
	versions, err := Versions()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"0001_create_accounts.sql",
		"0002_create_account_transactions.sql",
		"0003_create_users.sql",
	}, versions)
}
