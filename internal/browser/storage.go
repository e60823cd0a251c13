package browser

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// StorageState is an authenticated browser snapshot in the Playwright
// "storage state" file format: cookies plus per-origin localStorage.
type StorageState struct {
	Cookies []Cookie      `json:"cookies"`
	Origins []OriginState `json:"origins"`
}

// Cookie is one stored cookie. Expires is seconds since the epoch; -1 marks a session cookie.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite,omitempty"`
}

// OriginState is the localStorage of one origin.
type OriginState struct {
	Origin       string      `json:"origin"`
	LocalStorage []NameValue `json:"localStorage"`
}

// NameValue is a localStorage entry.
type NameValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// LoadStorageState reads a storage state file.
// The returned error wraps os.ErrNotExist when the file is missing.
func LoadStorageState(path string) (*StorageState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage state %s: %w", path, err)
	}

	var state StorageState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse storage state %s: %w", path, err)
	}
	return &state, nil
}

// InitScript returns JavaScript that seeds localStorage for whichever stored
// origin the document belongs to. It is meant to run before any page script.
func (s *StorageState) InitScript() string {
	if s == nil || len(s.Origins) == 0 {
		return ""
	}

	seed := make(map[string]map[string]string, len(s.Origins))
	for _, origin := range s.Origins {
		if len(origin.LocalStorage) == 0 {
			continue
		}
		entries := make(map[string]string, len(origin.LocalStorage))
		for _, kv := range origin.LocalStorage {
			entries[kv.Name] = kv.Value
		}
		seed[strings.TrimSuffix(origin.Origin, "/")] = entries
	}
	if len(seed) == 0 {
		return ""
	}

	encoded, _ := json.Marshal(seed)
	return fmt.Sprintf(`(() => {
	const seed = %s;
	const entries = seed[window.location.origin];
	if (!entries) return;
	for (const [k, v] of Object.entries(entries)) {
		try { window.localStorage.setItem(k, v); } catch (e) {}
	}
})();`, encoded)
}
