package secrets

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// "Service" groups the app's secrets in the OS keychain.
	KeyringService = "recruit-intake"

	// DefaultAccount is used when webhook.keyring_account is empty.
	DefaultAccount = "webhook"

	envToken = "INTAKE_WEBHOOK_TOKEN"
)

var ErrNoToken = errors.New("webhook token not found")

// GetWebhookToken looks in the keychain first, then INTAKE_WEBHOOK_TOKEN.
func GetWebhookToken(account string) (string, error) {
	account = accountOrDefault(account)
	tok, err := keyring.Get(KeyringService, account)
	if err == nil && strings.TrimSpace(tok) != "" {
		return tok, nil
	}
	if v := strings.TrimSpace(os.Getenv(envToken)); v != "" {
		return v, nil
	}
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return "", err
	}
	return "", ErrNoToken
}

func SetWebhookToken(account, token string) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("token is empty")
	}
	return keyring.Set(KeyringService, accountOrDefault(account), token)
}

func DeleteWebhookToken(account string) error {
	err := keyring.Delete(KeyringService, accountOrDefault(account))
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

func accountOrDefault(account string) string {
	if a := strings.TrimSpace(account); a != "" {
		return a
	}
	return DefaultAccount
}
