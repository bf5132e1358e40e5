package settings

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"copilot-codegen/pkg/utils"
)

// EnvDisableKeyring turns off the keychain lookup when set to "true" or "1".
const EnvDisableKeyring = "COPILOT_DISABLE_KEYRING"

// keyringUser is the account name the proxy key is stored under.
const keyringUser = "proxy-api-key"

// SecretStore supplies the proxy API key when the preferences file leaves it out.
type SecretStore interface {
	ProxyAPIKey() (string, error)
}

// KeyringStore keeps the proxy API key in the operating system keychain.
type KeyringStore struct {
	Service string
}

// NewKeyringStore returns a store using the application name as keychain service.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{Service: utils.AppName}
}

// ProxyAPIKey returns the stored key, or "" when none has been stored.
func (k *KeyringStore) ProxyAPIKey() (string, error) {
	key, err := keyring.Get(k.Service, keyringUser)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read keychain: %w", err)
	}
	return key, nil
}

// StoreProxyAPIKey saves key in the keychain.
func (k *KeyringStore) StoreProxyAPIKey(key string) error {
	if key == "" {
		return errors.New("API key is empty")
	}
	return keyring.Set(k.Service, keyringUser, key)
}

// DeleteProxyAPIKey removes the stored key. Deleting a missing key is not an error.
func (k *KeyringStore) DeleteProxyAPIKey() error {
	err := keyring.Delete(k.Service, keyringUser)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
