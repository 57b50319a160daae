package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// DevJWTSecret is only accepted outside release mode.
const DevJWTSecret = "default_super_secret_key"

// Config is the full runtime configuration, read once in main and injected downwards.
type Config struct {
	Mode string `env:"GIN_MODE" env-default:"debug"`
	Port string `env:"PORT" env-default:"8080"`

	Log      LogConfig
	DB       DBConfig
	Auth     AuthConfig
	Google   GoogleConfig
	SMTP     SMTPConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	HTTP     HTTPConfig
	Frontend FrontendConfig
}

type LogConfig struct {
	Level    string `env:"LOG_LEVEL" env-default:"info"`
	Encoding string `env:"LOG_ENCODING" env-default:"json"`
}

type DBConfig struct {
	Driver   string `env:"DB_DRIVER" env-default:"postgres"` // postgres | sqlite
	Host     string `env:"DB_HOST" env-default:"localhost"`
	Port     string `env:"DB_PORT" env-default:"5432"`
	User     string `env:"DB_USER" env-default:"postgres"`
	Password string `env:"DB_PASSWORD" env-default:"postgres"`
	Name     string `env:"DB_NAME" env-default:"postgres"`
	SSLMode  string `env:"DB_SSLMODE" env-default:"disable"`
	// SQLitePath is used when Driver is sqlite.
	SQLitePath string `env:"DB_SQLITE_PATH" env-default:"aklny.db"`
}

// DSN builds the connection string for the configured driver.
func (c DBConfig) DSN() string {
	if c.Driver == "sqlite" {
		return c.SQLitePath
	}
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + c.Port + "/" + c.Name + "?sslmode=" + c.SSLMode
}

type AuthConfig struct {
	JWTSecret       string        `env:"JWT_SECRET" env-default:"default_super_secret_key"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" env-default:"1h"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" env-default:"168h"`
	BcryptCost      int           `env:"BCRYPT_COST" env-default:"12"`
	CookieSecure    bool          `env:"COOKIE_SECURE" env-default:"false"`
}

type GoogleConfig struct {
	// Audiences lists every OAuth client id allowed to present an ID token (web, android, ios).
	Audiences []string `env:"GOOGLE_CLIENT_IDS" env-separator:","`
	JWKSURL   string   `env:"GOOGLE_JWKS_URL" env-default:"https://www.googleapis.com/oauth2/v3/certs"`
}

type SMTPConfig struct {
	Host        string `env:"SMTP_HOST"`
	Port        int    `env:"SMTP_PORT" env-default:"587"`
	Username    string `env:"SMTP_USERNAME"`
	Password    string `env:"SMTP_PASSWORD"`
	SenderEmail string `env:"SMTP_SENDER" env-default:"no-reply@aklny.app"`
	SenderName  string `env:"SMTP_SENDER_NAME" env-default:"Aklny"`
}

// Enabled reports whether enough SMTP settings exist to deliver mail.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.Username != "" && c.Password != ""
}

// MongoConfig holds tracking and chat storage. Without a URI both live in memory.
type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DATABASE" env-default:"aklny"`
}

func (c MongoConfig) Enabled() bool {
	return c.URI != ""
}

// RedisConfig enables cross-instance socket fan-out when Addr is set.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
	Channel  string `env:"REDIS_ROOM_CHANNEL" env-default:"aklny:rooms"`
}

func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

type HTTPConfig struct {
	AllowOrigins []string `env:"CORS_ALLOW_ORIGINS" env-separator:"," env-default:"http://localhost:3000,http://localhost:5173"`
}

type FrontendConfig struct {
	// BaseURL prefixes the links sent in verification and reset emails.
	BaseURL string `env:"APP_BASE_URL" env-default:"http://localhost:8080"`
}

// Release reports whether gin runs in release mode.
func (c *Config) Release() bool {
	return c.Mode == "release"
}

// Load reads an optional .env file and then the process environment.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		// missing file is fine, the environment may be set directly
		_ = godotenv.Load(envFile)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if c.Release() && c.Auth.JWTSecret == DevJWTSecret {
		return errors.New("JWT_SECRET is required in release mode")
	}
	if c.Auth.BcryptCost < 10 {
		return fmt.Errorf("BCRYPT_COST must be at least 10, got %d", c.Auth.BcryptCost)
	}
	if c.DB.Driver != "postgres" && c.DB.Driver != "sqlite" {
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	return nil
}
