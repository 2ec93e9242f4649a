// Package secrets resolves the SMTP app password, preferring the OS
// keychain over environment variables so the password never has to live in
// a config file.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// Service groups this app's secrets in the OS keychain.
	KeyringService = "jobradar"

	// EnvSMTPPassword is the fallback for headless hosts with no keychain.
	EnvSMTPPassword = "JOBRADAR_SMTP_PASSWORD"
)

// SMTPAccount names the keychain entry for one sender identity.
func SMTPAccount(sender, host string) string {
	return fmt.Sprintf("jobradar:smtp:%s@%s", sender, host)
}

// GetSMTPPassword tries the keychain first, then the environment.
func GetSMTPPassword(account string) (string, error) {
	if strings.TrimSpace(account) != "" {
		pw, err := keyring.Get(KeyringService, account)
		if err == nil && strings.TrimSpace(pw) != "" {
			return pw, nil
		}
	}
	if pw := strings.TrimSpace(os.Getenv(EnvSMTPPassword)); pw != "" {
		return pw, nil
	}
	return "", errors.New("SMTP password not found (set it in the keychain or via " + EnvSMTPPassword + ")")
}

func SetSMTPPassword(account, password string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, account, password)
}

func DeleteSMTPPassword(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, account)
}
