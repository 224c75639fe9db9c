package config

import (
	"fmt"
	"strings"

	"mail-unsubscriber/internal/models"

	"github.com/99designs/keyring"
)

const keyringService = "mail-unsubscriber"

// PasswordLookup returns the stored password for a login
type PasswordLookup func(login string) (string, error)

// KeyringPassword reads the mailbox password from the system keyring
func KeyringPassword(login string) (string, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: keyringService,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
		},
		KeychainTrustApplication: true,
	})
	if err != nil {
		return "", fmt.Errorf("opening keyring: %w", err)
	}

	item, err := ring.Get(login)
	if err != nil {
		return "", fmt.Errorf("getting password for %q: %w", login, err)
	}
	return string(item.Data), nil
}

// ResolvePassword fills an empty password from lookup when the keyring is enabled
func ResolvePassword(config *models.Config, lookup PasswordLookup) error {
	if !config.Email.Keyring || config.Email.Password != "" {
		return nil
	}
	if strings.TrimSpace(config.Email.Login) == "" {
		return &Error{Missing: []string{"email.login (" + envLogin + ")"}}
	}
	password, err := lookup(config.Email.Login)
	if err != nil {
		return &Error{Err: err}
	}
	config.Email.Password = password
	return nil
}
