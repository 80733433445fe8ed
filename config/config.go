package config

// Config is the top-level configuration object passed to InitInfra. It
// wraps EnvConfig the same way the teacher's Config wraps its EnvConfig,
// leaving room to layer non-env sources (flags, secrets manager) in later
// without touching every call site.
type Config struct {
	EnvConfig *EnvConfig
}

func NewConfig() *Config {
	return &Config{EnvConfig: LoadEnvConfig()}
}
