package secrets

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// “Service” groups the app's secrets in the OS keychain.
	KeyringService = "jobsearch"

	// SourceTokenAccount holds the token appended to sheet requests.
	SourceTokenAccount = "jobsearch:source-token"

	EnvSourceToken = "JOBSEARCH_SOURCE_TOKEN"
)

var ErrNoToken = errors.New("source token not found (set it in keychain or via env)")

// GetSourceToken prefers the environment, then the keychain.
func GetSourceToken() (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvSourceToken)); v != "" {
		return v, nil
	}
	tok, err := keyring.Get(KeyringService, SourceTokenAccount)
	if err == nil && strings.TrimSpace(tok) != "" {
		return tok, nil
	}
	return "", ErrNoToken
}

func SetSourceToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("token is empty")
	}
	return keyring.Set(KeyringService, SourceTokenAccount, strings.TrimSpace(token))
}

func DeleteSourceToken() error {
	err := keyring.Delete(KeyringService, SourceTokenAccount)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
