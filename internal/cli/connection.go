package cli

import (
	"os"
)

// connectionStringFromEnv returns the first non-empty connection string from
// PGRETRY_CONNECTION or DATABASE_URL environment variables.
func connectionStringFromEnv() string {
	if s := os.Getenv("PGRETRY_CONNECTION"); s != "" {
		return s
	}
	return os.Getenv("DATABASE_URL")
}

// resolveConnection picks the connection string by precedence:
// flag, config file, environment.
func resolveConnection(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if configValue != "" {
		return configValue
	}
	return connectionStringFromEnv()
}
