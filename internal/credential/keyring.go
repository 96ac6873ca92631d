package credential

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/99designs/keyring"
)

const serviceName = "epaper"

// TokenKey is the keyring key holding the backend bearer token.
const TokenKey = "backend-token"

// TokenEnv overrides the stored token when set.
const TokenEnv = "EPAPER_TOKEN"

// ArchivePasswordKey is the keyring key holding the IMAP archive password.
const ArchivePasswordKey = "archive-password"

// ArchivePasswordEnv overrides the stored archive password when set.
const ArchivePasswordEnv = "EPAPER_ARCHIVE_PASSWORD"

// Vault reads and writes credentials in a keyring.
type Vault struct {
	ring keyring.Keyring
}

// NewVault wraps an already opened keyring.
func NewVault(ring keyring.Keyring) *Vault {
	return &Vault{ring: ring}
}

// Open returns a Vault backed by the system keyring, falling back to an
// encrypted file under ~/.config/epaper/credentials.
func Open() (*Vault, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/epaper/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("epaper-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return &Vault{ring: ring}, nil
}

// Get retrieves a credential value by key.
func (v *Vault) Get(key string) (string, error) {
	item, err := v.ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

// Set stores a credential value by key.
func (v *Vault) Set(key string, value string) error {
	err := v.ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: "epaper " + key,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// Delete removes a credential by key. Deleting a missing key is not an
// error.
func (v *Vault) Delete(key string) error {
	err := v.ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}

// Token returns the backend bearer token. EPAPER_TOKEN wins over the
// keyring; a missing token yields "" so requests go out unauthenticated.
func (v *Vault) Token() (string, error) {
	return v.lookup(TokenKey, TokenEnv)
}

// ArchivePassword returns the IMAP archive password, or "" when none is
// stored.
func (v *Vault) ArchivePassword() (string, error) {
	return v.lookup(ArchivePasswordKey, ArchivePasswordEnv)
}

func (v *Vault) lookup(key, env string) (string, error) {
	if s := strings.TrimSpace(os.Getenv(env)); s != "" {
		return s, nil
	}
	if v == nil {
		return "", nil
	}

	item, err := v.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return strings.TrimSpace(string(item.Data)), nil
}
