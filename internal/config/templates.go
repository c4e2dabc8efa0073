package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Options Screener Configuration

[server]
# Listen address (PORT in the environment overrides the port)
address = ":5000"
# Allowed CORS origin
cors_origin = "*"
read_timeout = "15s"
write_timeout = "60s"
shutdown_timeout = "10s"

[market_data]
# Source: "simulated", "nse" or "kite"
source = "simulated"
request_timeout = "10s"
# Add network-like delays to simulated data
simulated_latency = true
nse_base_url = "https://www.nseindia.com"

[market_data.retry]
attempts = 3
initial_delay = "200ms"
max_delay = "2s"
factor = 2.0

[market_data.circuit_breaker]
# Consecutive upstream failures before calls are rejected
failure_threshold = 5
# Successful trial calls needed to close again
success_threshold = 2
cooldown = "30s"

[cache]
# Backend: "memory", "sqlite", "redis" or "none"
backend = "memory"
ttl = "30s"
# sqlite_path = "~/.config/options-screener/cache.db"
redis_url = "redis://localhost:6379/0"
redis_prefix = "screener:result:"

[screener]
# Symbols screened in parallel
concurrency = 4
max_symbols = 50

[logging]
# Level: debug, info, warn, error
level = "info"
console = true
# Write console lines as JSON (for log shippers)
json = false
file = false
max_size_mb = 50
max_backups = 5
max_age_days = 14
`

const credentialsTemplate = `# Options Screener Credentials
# Keep this file secure (permissions 0600)

[zerodha]
# Kite Connect API key and a session access token, needed only for
# market_data.source = "kite"
api_key = ""
access_token = ""
`

// createTemplate writes a template file so the user has something to edit.
// An existing file is left untouched.
func createTemplate(configDir, name, content string, perm os.FileMode) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		return fmt.Errorf("writing %s template: %w", name, err)
	}
	return nil
}

// ConfigPath returns the path of config.toml inside dir.
func ConfigPath(dir string) string {
	return filepath.Join(dir, "config.toml")
}

// CredentialsPath returns the path of credentials.toml inside dir.
func CredentialsPath(dir string) string {
	return filepath.Join(dir, "credentials.toml")
}
