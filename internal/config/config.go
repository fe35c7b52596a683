// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
)

const defaultViesBaseURL = "https://ec.europa.eu/taxation_customs/vies/rest-api"

// Config holds the application configuration.
type Config struct {
	PostgresConn  string
	ServerAddress string
	JWTSecret     string
	ViesBaseURL   string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	conn := os.Getenv("POSTGRES_CONN")
	if conn == "" {
		return nil, fmt.Errorf("POSTGRES_CONN is required")
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	addr := os.Getenv("SERVER_ADDRESS")
	if addr == "" {
		addr = "0.0.0.0:8080"
	}

	viesURL := os.Getenv("VIES_BASE_URL")
	if viesURL == "" {
		viesURL = defaultViesBaseURL
	}

	return &Config{
		PostgresConn:  conn,
		ServerAddress: addr,
		JWTSecret:     secret,
		ViesBaseURL:   viesURL,
	}, nil
}
