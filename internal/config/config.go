package config

import "time"

type Config struct {
	Environment string `mapstructure:"environment" yaml:"environment"`
	Port        int    `mapstructure:"port" yaml:"port"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`

	Database   DatabaseConfig   `mapstructure:"database" yaml:"database"`
	Tenancy    TenancyConfig    `mapstructure:"tenancy" yaml:"tenancy"`
	Auth       AuthConfig       `mapstructure:"auth" yaml:"auth"`
	Cache      CacheConfig      `mapstructure:"cache" yaml:"cache"`
	CORS       CORSConfig       `mapstructure:"cors" yaml:"cors"`
	Monitoring MonitoringConfig `mapstructure:"monitoring" yaml:"monitoring"`
	Secrets    SecretsConfig    `mapstructure:"secrets" yaml:"secrets"`
}

// DatabaseConfig configures the PostgreSQL pool.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
	// MigrateURL connects as the schema owner. Falls back to URL.
	MigrateURL string `mapstructure:"migrate_url" yaml:"migrate_url"`
	// SessionRole is assumed with SET ROLE on every new connection so that
	// row-level security applies even when URL logs in as the owner.
	SessionRole    string `mapstructure:"session_role" yaml:"session_role"`
	MaxConns       int32  `mapstructure:"max_conns" yaml:"max_conns"`
	MinConns       int32  `mapstructure:"min_conns" yaml:"min_conns"`
	ConnectTimeout int    `mapstructure:"connect_timeout" yaml:"connect_timeout"` // seconds
	AutoMigrate    bool   `mapstructure:"auto_migrate" yaml:"auto_migrate"`
}

// MigrationURL returns the DSN used for schema changes.
func (d DatabaseConfig) MigrationURL() string {
	if d.MigrateURL != "" {
		return d.MigrateURL
	}
	return d.URL
}

type TenancyConfig struct {
	HeaderName string `mapstructure:"header_name" yaml:"header_name"`
	// EnvVar names the process environment variable consulted last when
	// resolving a tenant. Empty disables the fallback.
	EnvVar string `mapstructure:"env_var" yaml:"env_var"`
}

type AuthConfig struct {
	Enabled         bool      `mapstructure:"enabled" yaml:"enabled"`
	JWT             JWTConfig `mapstructure:"jwt" yaml:"jwt"`
	GlobalAdminRole string    `mapstructure:"global_admin_role" yaml:"global_admin_role"`
	AgentKeyPrefix  string    `mapstructure:"agent_key_prefix" yaml:"agent_key_prefix"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret" yaml:"secret"`
	TenantClaim string `mapstructure:"tenant_claim" yaml:"tenant_claim"`
	Issuer      string `mapstructure:"issuer" yaml:"issuer"`
}

type CacheConfig struct {
	Nodes    []string `mapstructure:"nodes" yaml:"nodes"`
	TTL      int      `mapstructure:"ttl" yaml:"ttl"` // seconds
	Password string   `mapstructure:"password" yaml:"password"`
	DB       int      `mapstructure:"db" yaml:"db"`
}

func (c CacheConfig) TTLDuration() time.Duration {
	return time.Duration(c.TTL) * time.Second
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods" yaml:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers" yaml:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers" yaml:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials" yaml:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age" yaml:"max_age"`
}

type MonitoringConfig struct {
	Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
	MetricsPath    string `mapstructure:"metrics_path" yaml:"metrics_path"`
	TracingEnabled bool   `mapstructure:"tracing_enabled" yaml:"tracing_enabled"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`
}

type SecretsConfig struct {
	// CredentialKey is a base64 encoded 32 byte key used to seal external
	// graph database passwords before they are stored.
	CredentialKey string `mapstructure:"credential_key" yaml:"credential_key"`
}
