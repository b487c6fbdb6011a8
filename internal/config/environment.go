package config

// LoadEnvironmentConfig loads configuration and applies the overrides for env.
func LoadEnvironmentConfig(env string) (*Config, error) {
	base, err := Load()
	if err != nil {
		return nil, err
	}
	return ApplyEnvironment(base, env), nil
}

// ApplyEnvironment adjusts config for a deployment environment.
func ApplyEnvironment(config *Config, env string) *Config {
	switch env {
	case "production":
		return applyProductionConfig(config)
	case "development":
		return applyDevelopmentConfig(config)
	case "test":
		return applyTestConfig(config)
	default:
		return config
	}
}

func applyProductionConfig(config *Config) *Config {
	if config.LogLevel == "debug" {
		config.LogLevel = "info"
	}
	config.Cache.TTL = 600
	// Migrations are run explicitly with theoctl in production.
	config.Database.AutoMigrate = false
	return config
}

func applyDevelopmentConfig(config *Config) *Config {
	config.LogLevel = "debug"
	config.CORS.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	return config
}

func applyTestConfig(config *Config) *Config {
	config.LogLevel = "error"
	config.Cache.TTL = 1
	config.Monitoring.TracingEnabled = false
	return config
}
