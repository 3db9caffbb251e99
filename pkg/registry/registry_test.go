package registry

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/counselops/matterflow/pkg/models"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()

	return NewRegistry(slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

func TestRegistryBuiltinTypes(t *testing.T) {
	r := newTestRegistry(t)

	def := r.Get(models.RequestTypeGeneral)
	require.NotNil(t, def)
	assert.Equal(t, "General Legal Review", def.DisplayName)
	assert.True(t, def.AllowsAudience(models.AudienceBoth))

	marketing := r.Get(models.RequestTypeMarketingMaterial)
	require.NotNil(t, marketing)
	assert.True(t, marketing.ForesideEligible)
	assert.False(t, marketing.AllowsAudience(models.AudienceLegal))

	assert.Nil(t, r.Get(models.RequestType("unknown")))
}

func TestRegistryLoadDefinitions(t *testing.T) {
	dir := t.TempDir()

	definition := `{
		"type": "side_letter",
		"display_name": "Side Letter Review",
		"allowed_audiences": ["legal"],
		"foreside_eligible": false
	}`

	err := os.WriteFile(filepath.Join(dir, "side_letter.json"), []byte(definition), 0o600)
	require.NoError(t, err)

	r := newTestRegistry(t)
	require.NoError(t, r.LoadDefinitions(dir))

	def := r.Get(models.RequestType("side_letter"))
	require.NotNil(t, def)
	assert.Equal(t, "Side Letter Review", def.DisplayName)
	assert.True(t, def.AllowsAudience(models.AudienceLegal))
	assert.False(t, def.AllowsAudience(models.AudienceCompliance))
}

func TestRegistryLoadDefinitionsOverridesBuiltin(t *testing.T) {
	dir := t.TempDir()

	definition := `{
		"type": "contract",
		"display_name": "Contract and Vendor Review",
		"allowed_audiences": ["legal", "both"]
	}`

	err := os.WriteFile(filepath.Join(dir, "contract.json"), []byte(definition), 0o600)
	require.NoError(t, err)

	r := newTestRegistry(t)
	require.NoError(t, r.LoadDefinitions(dir))

	def := r.Get(models.RequestTypeContract)
	require.NotNil(t, def)
	assert.Equal(t, "Contract and Vendor Review", def.DisplayName)
	assert.True(t, def.AllowsAudience(models.AudienceBoth))
}

func TestRegistryLoadDefinitionsRejectsInvalid(t *testing.T) {
	tests := []struct {
		name       string
		definition string
	}{
		{
			name:       "missing display name",
			definition: `{"type": "x", "allowed_audiences": ["legal"]}`,
		},
		{
			name:       "empty audiences",
			definition: `{"type": "x", "display_name": "X", "allowed_audiences": []}`,
		},
		{
			name:       "unknown audience",
			definition: `{"type": "x", "display_name": "X", "allowed_audiences": ["finance"]}`,
		},
		{
			name:       "unknown field",
			definition: `{"type": "x", "display_name": "X", "allowed_audiences": ["legal"], "color": "red"}`,
		},
		{
			name:       "not JSON",
			definition: `{`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()

			err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte(tt.definition), 0o600)
			require.NoError(t, err)

			r := newTestRegistry(t)
			assert.Error(t, r.LoadDefinitions(dir))
		})
	}
}

func TestRegistryMissingDirectoryIsIgnored(t *testing.T) {
	r := newTestRegistry(t)
	assert.NoError(t, r.LoadDefinitions(filepath.Join(t.TempDir(), "nope")))
}

func TestRegistryTypesSorted(t *testing.T) {
	r := newTestRegistry(t)

	types := r.Types()
	require.Len(t, types, 3)
	assert.Equal(t, []models.RequestType{
		models.RequestTypeContract,
		models.RequestTypeGeneral,
		models.RequestTypeMarketingMaterial,
	}, types)
}
