package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "google_export_settings.json"), nil)
}

func readFile(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func strPtr(s string) *string { return &s }

func TestStore_LoadMissingFile(t *testing.T) {
	store := newTestStore(t)

	st, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, Settings{}, st)

	raw, err := store.Raw()
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestStore_LoadMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "{folder"},
		{"array", `["a"]`},
		{"non-string value", `{"folder_id": 12}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			require.NoError(t, os.WriteFile(store.Path(), []byte(tt.content), 0o600))

			_, err := store.Load()
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestStore_UpdatePreservesUnknownKeys(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte(`{"theme":"dark","folder_id":"old"}`), 0o600))

	st, err := store.Update(Patch{FolderID: strPtr("new"), CredentialsPath: strPtr("service_account.json")})
	require.NoError(t, err)
	assert.Equal(t, "new", st.FolderID)
	assert.Equal(t, "service_account.json", st.CredentialsPath)
	assert.Empty(t, st.ClientSecretPath)

	stored := readFile(t, store.Path())
	assert.Equal(t, "dark", stored["theme"])
	assert.Equal(t, "new", stored["folder_id"])
	assert.NotContains(t, stored, "client_secret_path")
}

func TestStore_UpdateMap(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Update(Patch{FolderID: strPtr("keep")})
	require.NoError(t, err)

	out, err := store.UpdateMap(map[string]any{
		"client_secret_path": "client_secret.json",
		"folder_id":          nil,
		"not_allowed":        "ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, "keep", out["folder_id"])
	assert.Equal(t, "client_secret.json", out["client_secret_path"])
	assert.NotContains(t, out, "not_allowed")

	_, err = store.UpdateMap(map[string]any{"folder_id": 5})
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestStore_WritesUnescapedUTF8(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Update(Patch{FolderID: strPtr("папка<1>")})
	require.NoError(t, err)

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "папка<1>")

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestStore_CurrentResolvesRelativePaths(t *testing.T) {
	store := newTestStore(t)
	abs := filepath.Join(t.TempDir(), "key.json")
	_, err := store.Update(Patch{
		CredentialsPath:  strPtr(abs),
		ClientSecretPath: strPtr("nested/client_secret.json"),
	})
	require.NoError(t, err)

	st, err := store.Current()
	require.NoError(t, err)
	assert.Equal(t, abs, st.CredentialsPath)
	assert.Equal(t, filepath.Join(store.Dir(), "nested", "client_secret.json"), st.ClientSecretPath)
}

func TestStore_SaveCredential(t *testing.T) {
	store := newTestStore(t)

	name, err := store.SaveCredential(TargetCredentials, []byte(`{"client_email":"svc@example.iam.gserviceaccount.com"}`))
	require.NoError(t, err)
	assert.Equal(t, "service_account.json", name)
	assert.FileExists(t, filepath.Join(store.Dir(), name))

	name, err = store.SaveCredential(TargetClientSecret, []byte(`{"installed":{}}`))
	require.NoError(t, err)
	assert.Equal(t, "client_secret.json", name)

	_, err = store.SaveCredential("token", []byte(`{}`))
	assert.ErrorIs(t, err, ErrUnknownTarget)

	_, err = store.SaveCredential(TargetCredentials, []byte("not json"))
	assert.ErrorIs(t, err, ErrNotJSON)
}
