package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/filedock/filedock/util/random"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config holds everything the server needs at startup. It is built once by Load
// and passed explicitly to the web server, services and jobs.
type Config struct {
	Listen          string   `toml:"listen" json:"listen"`
	Port            int      `toml:"port" json:"port"`
	UploadDir       string   `toml:"uploadDir" json:"uploadDir"`
	DBPath          string   `toml:"dbPath" json:"dbPath"`
	SessionSecret   string   `toml:"sessionSecret" json:"-"`
	SessionMaxAge   int      `toml:"sessionMaxAge" json:"sessionMaxAge"` // minutes
	MaxUploadMB     int64    `toml:"maxUploadMB" json:"maxUploadMB"`
	AllowedOrigins  []string `toml:"allowedOrigins" json:"allowedOrigins"`
	PrivateRead     bool     `toml:"privateRead" json:"privateRead"`
	WebDir          string   `toml:"webDir" json:"webDir"`
	CertFile        string   `toml:"certFile" json:"certFile"`
	KeyFile         string   `toml:"keyFile" json:"keyFile"`
	DiskWarnPercent float64  `toml:"diskWarnPercent" json:"diskWarnPercent"`
	LoginPerMinute  int      `toml:"loginPerMinute" json:"loginPerMinute"`

	secretGenerated bool
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Listen:          "",
		Port:            8080,
		UploadDir:       "upload",
		DBPath:          GetDBPath(),
		SessionMaxAge:   360,
		MaxUploadMB:     10000,
		DiskWarnPercent: 90,
		LoginPerMinute:  10,
	}
}

// Load builds the Config from defaults, then the TOML file, then the environment.
// A .env file in the working directory is loaded into the environment first.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c := Default()

	path, explicit := GetConfigFile()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	c.applyEnv()

	if c.SessionSecret == "" {
		c.SessionSecret = random.Seq(48)
		c.secretGenerated = true
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyEnv() {
	envString(&c.Listen, "LISTEN")
	envInt(&c.Port, "PORT")
	envString(&c.UploadDir, "UPLOAD_DIR")
	envString(&c.DBPath, "DB_PATH")
	envString(&c.SessionSecret, "SESSION_SECRET")
	envInt(&c.SessionMaxAge, "SESSION_MAX_AGE")
	if v := os.Getenv(envPrefix + "MAX_UPLOAD_MB"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.MaxUploadMB = n
		}
	}
	if v := os.Getenv(envPrefix + "ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv(envPrefix + "PRIVATE_READ"); v != "" {
		c.PrivateRead = v == "true" || v == "1"
	}
	envString(&c.WebDir, "WEB_DIR")
	envString(&c.CertFile, "CERT_FILE")
	envString(&c.KeyFile, "KEY_FILE")
	if v := os.Getenv(envPrefix + "DISK_WARN_PERCENT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.DiskWarnPercent = f
		}
	}
	envInt(&c.LoginPerMinute, "LOGIN_PER_MINUTE")
}

// Validate checks the configuration for values the server cannot start with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if strings.TrimSpace(c.UploadDir) == "" {
		return errors.New("upload directory cannot be empty")
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("database path cannot be empty")
	}
	if c.SessionMaxAge <= 0 {
		return fmt.Errorf("session max age must be positive, got %d", c.SessionMaxAge)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("max upload size must be positive, got %d", c.MaxUploadMB)
	}
	if (c.CertFile == "") != (c.KeyFile == "") {
		return errors.New("certFile and keyFile must be set together")
	}
	return nil
}

// SecretGenerated reports whether no session secret was configured and a random
// one was generated. Sessions will not survive a restart in that case.
func (c *Config) SecretGenerated() bool {
	return c.secretGenerated
}

// KeepGeneratedSecret reuses prev's session secret when c had to generate one,
// so a reload does not invalidate existing sessions.
func (c *Config) KeepGeneratedSecret(prev *Config) {
	if c.secretGenerated && prev != nil && prev.SessionSecret != "" {
		c.SessionSecret = prev.SessionSecret
	}
}

// MaxUploadBytes returns the request body limit for uploads.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// EnsureDirectories creates the upload root and the database folder.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.UploadDir, 0o755); err != nil {
		return err
	}
	return os.MkdirAll(filepath.Dir(c.DBPath), 0o755)
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(envPrefix + key); ok {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	v := os.Getenv(envPrefix + key)
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
