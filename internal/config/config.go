package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Storage   StorageConfig   `yaml:"storage"`
	Templates TemplatesConfig `yaml:"templates"`
	Redis     RedisConfig     `yaml:"redis"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Notify    NotifyConfig    `yaml:"notify"`
	Log       LogConfig       `yaml:"log"`
	CORS      CORSConfig      `yaml:"cors"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,PATCH,DELETE,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Authorization,Content-Type"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"true"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	// MigrationsDir, when set, is applied with goose on startup.
	MigrationsDir string `yaml:"migrations_dir" env:"DATABASE_MIGRATIONS_DIR"`
}

// AuthConfig holds session token settings.
type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret"       env:"AUTH_JWT_SECRET"       env-required:"true"`
	JWTIssuer      string        `yaml:"jwt_issuer"       env:"AUTH_JWT_ISSUER"       env-default:"presence-dashboard"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl" env:"AUTH_ACCESS_TOKEN_TTL" env-default:"1h"`
}

// StorageConfig holds blob store settings.
type StorageConfig struct {
	MongoURI          string `yaml:"mongo_uri"           env:"STORAGE_MONGO_URI"           env-default:"mongodb://localhost:27017"`
	Database          string `yaml:"database"            env:"STORAGE_DATABASE"            env-default:"presence"`
	PublicBaseURL     string `yaml:"public_base_url"     env:"STORAGE_PUBLIC_BASE_URL"     env-default:"http://localhost:8080/storage"`
	LogoBucket        string `yaml:"logo_bucket"         env:"STORAGE_LOGO_BUCKET"         env-default:"brand-logos"`
	CertificateBucket string `yaml:"certificate_bucket"  env:"STORAGE_CERTIFICATE_BUCKET"  env-default:"certificates"`
	MaxLogoBytes      int64  `yaml:"max_logo_bytes"      env:"STORAGE_MAX_LOGO_BYTES"      env-default:"5242880"`
	MaxCertBytes      int64  `yaml:"max_cert_bytes"      env:"STORAGE_MAX_CERT_BYTES"      env-default:"10485760"`
	CacheControl      int    `yaml:"cache_control"       env:"STORAGE_CACHE_CONTROL"       env-default:"3600"`
}

// TemplatesConfig holds section template fetch settings.
type TemplatesConfig struct {
	// BaseURLsRaw is a comma separated list of candidate bases, tried in order.
	BaseURLsRaw string        `yaml:"base_urls" env:"TEMPLATES_BASE_URLS" env-default:"http://localhost:3000,http://localhost:3000/dashboard"`
	Timeout     time.Duration `yaml:"timeout"   env:"TEMPLATES_TIMEOUT"   env-default:"5s"`
	CacheTTL    time.Duration `yaml:"cache_ttl" env:"TEMPLATES_CACHE_TTL" env-default:"10m"`

	// BaseURLs is parsed from BaseURLsRaw during validation.
	BaseURLs []string `yaml:"-" env:"-"`
}

// RedisConfig holds the optional shared template cache settings.
// An empty Addr disables the cache.
type RedisConfig struct {
	Addr     string `yaml:"addr"     env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db"       env:"REDIS_DB"       env-default:"0"`
}

// DashboardConfig holds dashboard controller settings.
type DashboardConfig struct {
	ReviewsWindow      int           `yaml:"reviews_window"       env:"DASHBOARD_REVIEWS_WINDOW"       env-default:"10"`
	DefaultSection     string        `yaml:"default_section"      env:"DASHBOARD_DEFAULT_SECTION"      env-default:"overview"`
	IdleTimeout        time.Duration `yaml:"idle_timeout"         env:"DASHBOARD_IDLE_TIMEOUT"         env-default:"30m"`
	SweepSchedule      string        `yaml:"sweep_schedule"       env:"DASHBOARD_SWEEP_SCHEDULE"       env-default:"@every 1m"`
	TokenPurgeSchedule string        `yaml:"token_purge_schedule" env:"DASHBOARD_TOKEN_PURGE_SCHEDULE" env-default:"@hourly"`
}

// NotifyConfig holds notification lifetimes.
type NotifyConfig struct {
	ShortTTL time.Duration `yaml:"short_ttl" env:"NOTIFY_SHORT_TTL" env-default:"3s"`
	LongTTL  time.Duration `yaml:"long_ttl"  env:"NOTIFY_LONG_TTL"  env-default:"5s"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// RedisEnabled reports whether a shared template cache is configured.
func (c RedisConfig) RedisEnabled() bool {
	return c.Addr != ""
}
