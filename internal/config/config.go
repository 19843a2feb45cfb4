package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// DefaultPath is read when neither --config nor CONFIG_PATH is given.
const DefaultPath = "configs/development.yaml"

// envPrefix namespaces the environment overrides.
const envPrefix = "EMPLOYEES_"

type Config struct {
	Server Server `yaml:"server"`

	Database Database `yaml:"database"`

	JWT JWT `yaml:"jwt"`

	Log Log `yaml:"log"`
}

type Server struct {
	Address         string        `yaml:"address"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`

	// Addresses or CIDR blocks whose X-Forwarded-For is believed
	TrustedProxies []string `yaml:"trusted_proxies"`

	// Login attempts per second and burst, per client IP
	LoginRate  float64 `yaml:"login_rate"`
	LoginBurst int     `yaml:"login_burst"`
}

type JWT struct {
	Secret    string `yaml:"secret"`
	ExpiresIn int    `yaml:"expires_in"` // In Hours
}

type Database struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`

	MigrationsPath string `yaml:"migrations_path"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// DSN is the lib/pq keyword connection string.
func (d Database) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// URL is the connection string golang-migrate expects.
func (d Database) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

// Default returns the configuration used for anything the file leaves out.
func Default() Config {
	return Config{
		Server: Server{
			Address:         ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			LoginRate:       1,
			LoginBurst:      5,
		},
		Database: Database{
			Host:           "localhost",
			Port:           5432,
			User:           "employees",
			DBName:         "employees",
			SSLMode:        "disable",
			MigrationsPath: "file://migrations",
		},
		JWT: JWT{
			ExpiresIn: 12,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the YAML file at path, applies EMPLOYEES_* environment
// overrides and validates the result. An empty path falls back to
// CONFIG_PATH and then DefaultPath; only the default may be missing.
func Load(path string) (*Config, error) {
	explicit := true
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = DefaultPath
		explicit = false
	}

	cfg := Default()

	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to open config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"SERVER_ADDRESS":  &cfg.Server.Address,
		"DB_HOST":         &cfg.Database.Host,
		"DB_USER":         &cfg.Database.User,
		"DB_PASSWORD":     &cfg.Database.Password,
		"DB_NAME":         &cfg.Database.DBName,
		"DB_SSLMODE":      &cfg.Database.SSLMode,
		"MIGRATIONS_PATH": &cfg.Database.MigrationsPath,
		"JWT_SECRET":      &cfg.JWT.Secret,
		"LOG_LEVEL":       &cfg.Log.Level,
		"LOG_FORMAT":      &cfg.Log.Format,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"DB_PORT":        &cfg.Database.Port,
		"JWT_EXPIRES_IN": &cfg.JWT.ExpiresIn,
	}
	for key, dst := range ints {
		v, ok := os.LookupEnv(envPrefix + key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: invalid integer %q", envPrefix, key, v)
		}
		*dst = n
	}

	if v, ok := os.LookupEnv(envPrefix + "CORS_ORIGINS"); ok {
		cfg.Server.CORSOrigins = splitList(v)
	}
	if v, ok := os.LookupEnv(envPrefix + "TRUSTED_PROXIES"); ok {
		cfg.Server.TrustedProxies = splitList(v)
	}

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return errors.New("server.address is required")
	}
	if c.Server.LoginRate <= 0 || c.Server.LoginBurst <= 0 {
		return errors.New("server.login_rate and server.login_burst must be positive")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("database.port %d out of range", c.Database.Port)
	}
	if c.Database.Host == "" || c.Database.DBName == "" {
		return errors.New("database.host and database.dbname are required")
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required (set " + envPrefix + "JWT_SECRET)")
	}
	if c.JWT.ExpiresIn <= 0 {
		return errors.New("jwt.expires_in must be positive")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q: expected text or json", c.Log.Format)
	}
	return nil
}

// TokenTTL is the lifetime of issued access tokens.
func (j JWT) TokenTTL() time.Duration {
	return time.Duration(j.ExpiresIn) * time.Hour
}
