package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	ProviderFirebase = "firebase"
	ProviderJWT      = "jwt"
)

type Config struct {
	Server struct {
		Address  string `yaml:"address"`
		BasePath string `yaml:"base_path"`
	} `yaml:"server"`
	Database struct {
		URL        string        `yaml:"url"`
		Name       string        `yaml:"name"`
		Collection string        `yaml:"collection"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"database"`
	Auth struct {
		Provider      string        `yaml:"provider"`
		ServiceKey    string        `yaml:"service_key"`
		JWTSecret     string        `yaml:"jwt_secret"`
		VerifyTimeout time.Duration `yaml:"verify_timeout"`
	} `yaml:"auth"`
	CORS struct {
		AllowedOrigins  []string `yaml:"allowed_origins"`
		PreviewSuffixes []string `yaml:"preview_suffixes"`
	} `yaml:"cors"`
	LogLevel string `yaml:"log_level"`
}

func defaults() Config {
	var cfg Config
	cfg.Server.Address = ":5000"
	cfg.Server.BasePath = "/api/properties"
	cfg.Database.Name = "homenest"
	cfg.Database.Collection = "properties"
	cfg.Database.Timeout = 10 * time.Second
	cfg.Auth.Provider = ProviderFirebase
	cfg.Auth.VerifyTimeout = 5 * time.Second
	cfg.CORS.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	cfg.CORS.PreviewSuffixes = []string{".vercel.app", ".netlify.app"}
	cfg.LogLevel = "info"
	return cfg
}

// LoadConfig reads the optional YAML file at path, then applies environment overrides.
func LoadConfig(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("unmarshal config data: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) error {
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Address = ":" + port
	}
	setString(&cfg.Server.BasePath, "BASE_PATH")
	setString(&cfg.Database.URL, "MONGODB_URI")
	setString(&cfg.Database.Name, "MONGODB_DATABASE")
	setString(&cfg.Auth.Provider, "AUTH_PROVIDER")
	setString(&cfg.Auth.ServiceKey, "FB_SERVICE_KEY")
	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setList(&cfg.CORS.AllowedOrigins, "CORS_ALLOWED_ORIGINS")
	setList(&cfg.CORS.PreviewSuffixes, "CORS_PREVIEW_SUFFIXES")
	if err := setDuration(&cfg.Database.Timeout, "STORE_TIMEOUT"); err != nil {
		return err
	}
	return setDuration(&cfg.Auth.VerifyTimeout, "VERIFY_TIMEOUT")
}

func (c Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("config: MONGODB_URI is required")
	}
	if c.Database.Timeout <= 0 || c.Auth.VerifyTimeout <= 0 {
		return errors.New("config: timeouts must be positive")
	}
	if !strings.HasPrefix(c.Server.BasePath, "/") || strings.HasSuffix(c.Server.BasePath, "/") {
		return fmt.Errorf("config: base path %q must start and not end with /", c.Server.BasePath)
	}
	switch c.Auth.Provider {
	case ProviderFirebase:
		if c.Auth.ServiceKey == "" {
			return errors.New("config: FB_SERVICE_KEY is required for the firebase provider")
		}
	case ProviderJWT:
		if c.Auth.JWTSecret == "" {
			return errors.New("config: JWT_SECRET is required for the jwt provider")
		}
	default:
		return fmt.Errorf("config: unknown auth provider %q", c.Auth.Provider)
	}
	return nil
}

// ServiceAccountJSON decodes the base64 service credential blob.
func (c Config) ServiceAccountJSON() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(c.Auth.ServiceKey))
	if err != nil {
		return nil, fmt.Errorf("config: FB_SERVICE_KEY is not valid base64: %w", err)
	}
	return data, nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*dst = out
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = d
	return nil
}
