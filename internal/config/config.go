package config

type Config interface {
	EnvConfig
	CorsConfig
	FlowConfig
	UpstreamOIDCConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetBaseURL() string
	GetRedisURL() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Flow
	UpstreamOIDC
}

func New() Config {
	return mainConfig{}
}
