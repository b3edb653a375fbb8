package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every configuration variable name.
const EnvPrefix = "RESERVATION_"

// Config captures environment driven configuration values for the reservation service.
type Config struct {
	HTTPPort         int
	DBDriver         string
	DBDSN            string
	TokenSecret      string
	TokenTTL         time.Duration
	LogLevel         string
	LogFormat        string
	SettingsCacheTTL time.Duration
	DefaultTimezone  *time.Location
}

// Load parses configuration values from the current process environment.
//
// Variables may be seeded from a dotenv file named by RESERVATION_ENV_FILE
// (default ".env"); values already present in the environment win and a
// missing file is ignored. Defaults are applied to optional fields while
// missing and invalid entries are reported together.
func Load() (Config, error) {
	if err := loadEnvFile(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		HTTPPort:         8080,
		DBDriver:         "sqlite",
		TokenTTL:         24 * time.Hour,
		LogLevel:         "info",
		LogFormat:        "json",
		SettingsCacheTTL: time.Minute,
		DefaultTimezone:  time.UTC,
	}

	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 4)

	if portValue := lookup("HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, EnvPrefix+"HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if driver := strings.ToLower(lookup("DB_DRIVER")); driver != "" {
		switch driver {
		case "sqlite", "postgres":
			cfg.DBDriver = driver
		default:
			invalid = append(invalid, EnvPrefix+"DB_DRIVER")
		}
	}

	cfg.DBDSN = lookup("DB_DSN")
	if cfg.DBDSN == "" {
		if cfg.DBDriver == "postgres" {
			missing = append(missing, EnvPrefix+"DB_DSN")
		} else {
			cfg.DBDSN = "reservations.db"
		}
	}

	if secret := lookup("TOKEN_SECRET"); secret == "" {
		missing = append(missing, EnvPrefix+"TOKEN_SECRET")
	} else {
		cfg.TokenSecret = secret
	}

	if ttlValue := lookup("TOKEN_TTL"); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, EnvPrefix+"TOKEN_TTL")
		} else {
			cfg.TokenTTL = ttl
		}
	}

	if level := lookup("LOG_LEVEL"); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}
	if format := strings.ToLower(lookup("LOG_FORMAT")); format != "" {
		if format != "json" && format != "text" {
			invalid = append(invalid, EnvPrefix+"LOG_FORMAT")
		} else {
			cfg.LogFormat = format
		}
	}

	if ttlValue := lookup("SETTINGS_CACHE_TTL"); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl < 0 {
			invalid = append(invalid, EnvPrefix+"SETTINGS_CACHE_TTL")
		} else {
			cfg.SettingsCacheTTL = ttl
		}
	}

	if zone := lookup("DEFAULT_TIMEZONE"); zone != "" {
		loc, err := time.LoadLocation(zone)
		if err != nil {
			invalid = append(invalid, EnvPrefix+"DEFAULT_TIMEZONE")
		} else {
			cfg.DefaultTimezone = loc
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("必須の環境変数が設定されていません: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("環境変数の値が不正です: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func lookup(key string) string {
	return strings.TrimSpace(os.Getenv(EnvPrefix + key))
}

func loadEnvFile() error {
	path := lookup("ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("環境ファイルを読み込めません: %s: %w", path, err)
	}
	return nil
}
