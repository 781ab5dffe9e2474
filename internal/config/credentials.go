package config

import (
	"errors"
	"fmt"

	"grocerybi/pkg/models"

	"github.com/zalando/go-keyring"
)

const keyringService = "grocerybi"

// keyringAccount names the keyring entry for a warehouse login
func keyringAccount(w models.Warehouse) string {
	return fmt.Sprintf("%s:%s@%s", w.Driver, w.Username, w.Host+w.Account)
}

// StorePassword saves the warehouse password in the OS keyring
func StorePassword(w models.Warehouse, password string) error {
	if err := keyring.Set(keyringService, keyringAccount(w), password); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}
	return nil
}

// DeletePassword removes a stored warehouse password. Missing entries are not an error.
func DeletePassword(w models.Warehouse) error {
	err := keyring.Delete(keyringService, keyringAccount(w))
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return nil
}

// ResolvePassword fills an empty warehouse password from the keyring
func ResolvePassword(config *models.Config) error {
	if config.Warehouse.Password != "" {
		return nil
	}

	password, err := keyring.Get(keyringService, keyringAccount(config.Warehouse))
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get from keyring: %w", err)
	}

	config.Warehouse.Password = password
	return nil
}
