package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// Supported database drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable (or the same key in the optional config file).
type Config struct {
	Env         string        // application environment (dev, test, prod)
	Port        string        // HTTP port to listen on
	LogLevel    string        // debug, info, warn, error
	DBDriver    string        // sqlite or mysql
	DBUser      string        // database username (mysql)
	DBPass      string        // database password (optional)
	DBHost      string        // database host address (mysql)
	DBPort      string        // database port number (mysql)
	DBName      string        // database name (mysql)
	SQLitePath  string        // database file for the sqlite driver
	DBTimeout   time.Duration // per-request bound on database work
	BcryptCost  int           // bcrypt cost for password hashing
	CORSOrigins []string      // allowed origins, "*" for any

	Redis     RedisConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Events    EventsConfig
}

// Load reads configuration from the environment.  When CONFIG_FILE names a
// YAML/TOML/JSON file its keys are used as a lower-priority source.  The
// returned error describes the first invalid or missing setting.
func Load() (Config, error) {
	v := newViper()
	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	cfg := Config{
		Env:         v.GetString("APP_ENV"),
		Port:        v.GetString("APP_PORT"),
		LogLevel:    strings.ToLower(v.GetString("LOG_LEVEL")),
		DBDriver:    strings.ToLower(v.GetString("DB_DRIVER")),
		DBUser:      v.GetString("DB_USER"),
		DBPass:      v.GetString("DB_PASS"),
		DBHost:      v.GetString("DB_HOST"),
		DBPort:      v.GetString("DB_PORT"),
		DBName:      v.GetString("DB_NAME"),
		SQLitePath:  v.GetString("SQLITE_PATH"),
		DBTimeout:   v.GetDuration("DB_TIMEOUT"),
		BcryptCost:  v.GetInt("BCRYPT_COST"),
		CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),
		Redis:       loadRedisConfig(v),
		RateLimit:   loadRateLimitConfig(v),
		Cache:       loadCacheConfig(v),
		Events:      loadEventsConfig(v),
	}
	return cfg, cfg.validate()
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("APP_PORT", "8000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_DRIVER", DriverSQLite)
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("SQLITE_PATH", "kanban.db")
	v.SetDefault("DB_TIMEOUT", 5*time.Second)
	v.SetDefault("BCRYPT_COST", bcrypt.DefaultCost)
	v.SetDefault("CORS_ORIGINS", "*")
	setRedisDefaults(v)
	setRateLimitDefaults(v)
	setCacheDefaults(v)
	setEventsDefaults(v)
	return v
}

func (c Config) validate() error {
	switch c.DBDriver {
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH must not be empty")
		}
	case DriverMySQL:
		var missing []string
		for k, val := range map[string]string{"DB_USER": c.DBUser, "DB_HOST": c.DBHost, "DB_PORT": c.DBPort, "DB_NAME": c.DBName} {
			if val == "" {
				missing = append(missing, k)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("missing required env vars for mysql: %s", strings.Join(missing, ", "))
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.Port == "" {
		return errors.New("APP_PORT must not be empty")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.DBTimeout <= 0 {
		return errors.New("DB_TIMEOUT must be positive")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
