package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnsureUserConfig copies the shipped default config into the data dir on
// first run so users edit their own copy, never the packaged one.
func EnsureUserConfig(dataDir, defaultPath string) (string, error) {
	userPath := filepath.Join(dataDir, "config.yml")

	_, err := os.Stat(userPath)
	if err == nil {
		return userPath, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", err
	}

	src, err := os.Open(defaultPath)
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(userPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return userPath, nil
}

// LoadDotenv loads a .env file when present. Absence is not an error.
func LoadDotenv() {
	_ = godotenv.Load()
}

// ApplyEnvOverrides lets deploy-time settings win over the file without
// editing it. Only operational knobs are overridable, not filter rules.
func ApplyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("JOBRADAR_DB_PATH")); v != "" {
		cfg.Paths.DBPath = v
	}
	if v := strings.TrimSpace(os.Getenv("JOBRADAR_DATA_DIR")); v != "" {
		cfg.Paths.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv("JOBRADAR_REPORT_OUTPUT")); v != "" {
		cfg.Paths.ReportOutput = v
	}
	if v, err := strconv.ParseBool(os.Getenv("JOBRADAR_EMAIL_ENABLED")); err == nil {
		cfg.Email.EnableSend = v
	}
	if v, err := strconv.ParseBool(os.Getenv("JOBRADAR_DEBUG_DUMP")); err == nil {
		cfg.Network.DebugDumpEnabled = v
	}
	if v, err := strconv.Atoi(os.Getenv("JOBRADAR_TIMEOUT_SEC")); err == nil && v > 0 {
		cfg.Network.TimeoutSec = v
	}
}
