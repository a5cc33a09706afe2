package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileFor(t *testing.T) {
	p, err := ProfileFor("86033")
	require.NoError(t, err)
	assert.Equal(t, "86033", p.ID)
	assert.True(t, p.HasBankBook)

	_, err = ProfileFor("12345")
	assert.Error(t, err)
}

func TestAccountIDs(t *testing.T) {
	ids := AccountIDs()
	assert.Len(t, ids, 6)
	for _, want := range []string{"607", "669", "7687", "8350", "9197", "86033"} {
		assert.Contains(t, ids, want)
	}
}

// Every account must at least carry the statement and prior BRS specs,
// and every channel must point at a declared file.
func TestProfilesComplete(t *testing.T) {
	for id, p := range Profiles() {
		assert.Equal(t, id, p.ID)
		assert.NotEmpty(t, p.AccountNumber, id)

		require.Contains(t, p.Files, "statement", id)
		require.Contains(t, p.Files, "brs", id)
		assert.True(t, p.Files["brs"].DateSheet, id)

		for _, ch := range p.Channels {
			assert.Contains(t, p.Files, ch.FileKey, "%s channel %s", id, ch.Name)
			if ch.Name == "gl" {
				// The GL key is fixed by GLKeyField; per-channel columns
				// belong to one-way channels only.
				assert.Empty(t, ch.AmountColumn, "%s channel %s", id, ch.Name)
				assert.Empty(t, ch.ReferenceColumn, "%s channel %s", id, ch.Name)
			} else {
				assert.NotEmpty(t, ch.AmountColumn, "%s channel %s", id, ch.Name)
				assert.NotEmpty(t, ch.ReferenceColumn, "%s channel %s", id, ch.Name)
			}
		}

		if p.GLCode != "" {
			assert.NotEmpty(t, p.GLKeyField, id)
		}
	}
}
