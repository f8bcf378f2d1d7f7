package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultAPIURL = "http://localhost:5000"

	// APIURLEnv overrides the API base URL.
	APIURLEnv = "AUTHCTL_API_URL"
	// TokenFileEnv overrides where the access token is stored.
	TokenFileEnv = "AUTHCTL_TOKEN_FILE"

	tokenFileName = ".authctl_token"
)

// APIURLFlag is bound to --api-url and wins over the environment.
var APIURLFlag string

// ErrNoToken means no login has been stored yet.
var ErrNoToken = errors.New("not logged in (run authctl login)")

// APIURL returns the base URL for the API without a trailing slash.
func APIURL() string {
	url := defaultAPIURL
	if v := os.Getenv(APIURLEnv); v != "" {
		url = v
	}
	if APIURLFlag != "" {
		url = APIURLFlag
	}
	return strings.TrimRight(url, "/")
}

// TokenPath returns the token file location, defaulting to the home directory.
func TokenPath() (string, error) {
	if v := os.Getenv(TokenFileEnv); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, tokenFileName), nil
}

// SaveToken writes the token readable by the current user only.
func SaveToken(token string) error {
	path, err := TokenPath()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token), 0o600)
}

func LoadToken() (string, error) {
	path, err := TokenPath()
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", err
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// DeleteToken removes the stored token. A missing file is not an error.
func DeleteToken() error {
	path, err := TokenPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
