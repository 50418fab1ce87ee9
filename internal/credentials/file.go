package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/tinderscope/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// LoadCookies reads a JSON array of cookies.
func LoadCookies(path string) ([]schemas.Cookie, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("credentials: read cookie file: %w", err)
	}
	var cookies []schemas.Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("credentials: cookie file %s must hold a JSON array: %w", path, err)
	}
	return cookies, nil
}

// SaveCookies writes cookies as an indented JSON array.
func SaveCookies(path string, cookies []schemas.Cookie) error {
	if cookies == nil {
		cookies = []schemas.Cookie{}
	}
	return writeJSON(path, cookies)
}

// LoadLocalStorage reads a JSON object of origin to key/value items.
func LoadLocalStorage(path string) (map[string]map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("credentials: read local storage file: %w", err)
	}
	items := make(map[string]map[string]string)
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("credentials: local storage file %s: %w", path, err)
	}
	return items, nil
}

// SaveLocalStorage writes local storage items as indented JSON.
func SaveLocalStorage(path string, items map[string]map[string]string) error {
	if items == nil {
		items = map[string]map[string]string{}
	}
	return writeJSON(path, items)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("credentials: create %s: %w", dir, err)
		}
	}
	// Credential files grant account access.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("credentials: write %s: %w", path, err)
	}
	return nil
}

// FileSource reads previously exported cookie and local storage files. Either path
// may be empty; a configured path that does not exist is an error.
type FileSource struct {
	CookiePath       string
	LocalStoragePath string
}

func (s FileSource) Name() string { return "file" }

func (s FileSource) Read(ctx context.Context) (schemas.StorageState, error) {
	var state schemas.StorageState
	if err := ctx.Err(); err != nil {
		return state, err
	}
	var errs []error
	if s.CookiePath != "" {
		cookies, err := LoadCookies(s.CookiePath)
		if err != nil {
			errs = append(errs, err)
		}
		state.Cookies = cookies
	}
	if s.LocalStoragePath != "" {
		items, err := LoadLocalStorage(s.LocalStoragePath)
		if err != nil {
			errs = append(errs, err)
		}
		state.LocalStorage = items
	}
	return state, errors.Join(errs...)
}
