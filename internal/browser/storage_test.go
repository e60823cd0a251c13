package browser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const storageStateJSON = `{
	"cookies": [
		{"name": "session", "value": "abc", "domain": ".jobscan.co", "path": "/", "expires": 1893456000, "httpOnly": true, "secure": true, "sameSite": "Lax"},
		{"name": "tmp", "value": "1", "domain": "app.jobscan.co", "path": "/", "expires": -1, "httpOnly": false, "secure": false}
	],
	"origins": [
		{"origin": "https://app.jobscan.co", "localStorage": [{"name": "token", "value": "xyz"}]},
		{"origin": "https://empty.example.com", "localStorage": []}
	]
}`

func TestLoadStorageState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte(storageStateJSON), 0644))

	state, err := LoadStorageState(path)
	require.NoError(t, err)

	require.Len(t, state.Cookies, 2)
	assert.Equal(t, "session", state.Cookies[0].Name)
	assert.True(t, state.Cookies[0].HTTPOnly)
	assert.Equal(t, "Lax", state.Cookies[0].SameSite)
	require.Len(t, state.Origins, 2)
	assert.Equal(t, "token", state.Origins[0].LocalStorage[0].Name)
}

func TestLoadStorageState_Missing(t *testing.T) {
	_, err := LoadStorageState(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadStorageState_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := LoadStorageState(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse storage state")
}

func TestStorageState_InitScript(t *testing.T) {
	var nilState *StorageState
	assert.Empty(t, nilState.InitScript())
	assert.Empty(t, (&StorageState{Origins: []OriginState{{Origin: "https://a.example.com"}}}).InitScript())

	state := &StorageState{Origins: []OriginState{{
		Origin:       "https://app.jobscan.co/",
		LocalStorage: []NameValue{{Name: "token", Value: `x"y`}},
	}}}
	script := state.InitScript()
	assert.Contains(t, script, `"https://app.jobscan.co":{"token":"x\"y"}`)
	assert.Contains(t, script, "window.location.origin")
}

func TestCookieParams(t *testing.T) {
	params := cookieParams([]Cookie{
		{Name: "a", Value: "1", Domain: ".x.com", Path: "/", Expires: 1893456000, SameSite: "Strict"},
		{Name: "b", Value: "2", Domain: ".x.com", Path: "/", Expires: -1},
	})

	require.Len(t, params, 2)
	require.NotNil(t, params[0].Expires)
	assert.EqualValues(t, "Strict", params[0].SameSite)
	assert.Nil(t, params[1].Expires, "session cookies carry no expiry")
	assert.Empty(t, params[1].SameSite)
}
