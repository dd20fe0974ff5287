// Package secrets resolves sensitive configuration through Doppler, with
// environment variables as the development fallback.
package secrets

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// DopplerClient provides access to secrets stored in Doppler.
type DopplerClient struct {
	Project     string
	Config      string
	initialized bool
}

// NewDopplerClient creates a new Doppler client.
func NewDopplerClient(project, config string) *DopplerClient {
	return &DopplerClient{
		Project: project,
		Config:  config,
	}
}

// Initialize checks that the Doppler CLI is installed.
func (d *DopplerClient) Initialize() error {
	if _, err := exec.LookPath("doppler"); err != nil {
		return fmt.Errorf("doppler CLI not found: %w", err)
	}
	d.initialized = true
	return nil
}

// GetSecret retrieves a secret, preferring the process environment (set by
// `doppler run`) over a direct CLI call.
func (d *DopplerClient) GetSecret(key string) (string, error) {
	if !d.initialized {
		if err := d.Initialize(); err != nil {
			return "", err
		}
	}

	if value := os.Getenv(key); value != "" {
		return value, nil
	}

	cmd := exec.Command("doppler", "secrets", "get", key,
		"--project", d.Project,
		"--config", d.Config,
		"--plain")

	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to get secret %s: %w", key, err)
	}

	return strings.TrimSpace(string(output)), nil
}

// GetSecretWithFallback gets a secret, returning the fallback on any error
// or empty value.
func (d *DopplerClient) GetSecretWithFallback(key, fallback string) string {
	value, err := d.GetSecret(key)
	if err != nil || value == "" {
		return fallback
	}
	return value
}
