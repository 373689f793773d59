package config

import (
	"fmt"
	"os"
)

const (
	portEnvVar  = "PORT"
	appNameVar  = "APP_NAME"
	baseURLVar  = "BASE_URL"
	redisURLVar = "REDIS_URL"
	envVar      = "ENV"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Authz Endpoint")
}

// GetBaseURL returns the externally visible base URL of the server, used to
// derive the default login, consent and error page URLs.
func (EnvVars) GetBaseURL() string {
	return GetEnv(baseURLVar, "http://localhost:8080")
}

// GetRedisURL returns the Redis connection URL. Empty means the server runs
// with in-memory caches (single node only).
func (EnvVars) GetRedisURL() string {
	return GetEnv(redisURLVar, "")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv(envVar)
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
