// Package config loads application configuration.
//
// Precedence, lowest to highest: embedded defaults, the YAML file, BLUEPRINT_* environment
// variables. Nested keys are separated by a double underscore in the environment:
//
//	BLUEPRINT_STORE__DRIVER=redis        -> store.driver
//	BLUEPRINT_STORE__REDIS__ADDR=r:6379  -> store.redis.addr
//	BLUEPRINT_SCORING__CACHE_SIZE=0      -> scoring.cache_size
//
// ANTHROPIC_API_KEY and GEMINI_API_KEY fill the api_key of the capability using that
// provider when it is not set otherwise.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aretw0/blueprint/pkg/domain"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// DefaultFile is read when no path is given and it exists in the working directory.
const DefaultFile = "blueprint.yaml"

const envPrefix = "BLUEPRINT_"

// maxFileSize rejects absurd config files before parsing.
const maxFileSize = 1 << 20

//go:embed defaults.yaml
var defaults []byte

// Config is the full application configuration.
type Config struct {
	Log          LogConfig          `koanf:"log"`
	Store        StoreConfig        `koanf:"store"`
	HTTP         HTTPConfig         `koanf:"http"`
	Knowledge    KnowledgeConfig    `koanf:"knowledge"`
	Scoring      ScoringConfig      `koanf:"scoring"`
	Capabilities CapabilitiesConfig `koanf:"capabilities"`
}

type LogConfig struct {
	Level string `koanf:"level"`
	JSON  bool   `koanf:"json"`
}

type StoreConfig struct {
	Driver string      `koanf:"driver"`
	Dir    string      `koanf:"dir"`
	Redis  RedisConfig `koanf:"redis"`
}

type RedisConfig struct {
	Addr       string        `koanf:"addr"`
	Password   string        `koanf:"password"`
	DB         int           `koanf:"db"`
	TTL        time.Duration `koanf:"ttl"`
	Prefix     string        `koanf:"prefix"`
	LockPrefix string        `koanf:"lock_prefix"` // must not overlap Prefix
}

type HTTPConfig struct {
	Port int `koanf:"port"`
}

type KnowledgeConfig struct {
	// Path to a YAML knowledge base. Empty uses the built-in table.
	Path string `koanf:"path"`
}

type ScoringConfig struct {
	// CacheSize of the memoized scoring engine. Zero disables the cache.
	CacheSize int `koanf:"cache_size"`
}

type CapabilitiesConfig struct {
	// Offline replaces both providers with scripted capabilities.
	Offline  bool           `koanf:"offline"`
	Primary  ProviderConfig `koanf:"primary"`
	Fallback ProviderConfig `koanf:"fallback"`
	Rate     RateConfig     `koanf:"rate"`
}

type ProviderConfig struct {
	Provider string `koanf:"provider"`
	Model    string `koanf:"model"`
	APIKey   string `koanf:"api_key"`
}

type RateConfig struct {
	RPS   float64 `koanf:"rps"`
	Burst int     `koanf:"burst"`
}

// Store drivers and capability providers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"

	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// providerKeyEnv maps providers to their conventional API key variable.
var providerKeyEnv = map[string]string{
	ProviderAnthropic: "ANTHROPIC_API_KEY",
	ProviderGemini:    "GEMINI_API_KEY",
}

// Load builds the configuration. An explicit path must exist; an empty path falls back
// to DefaultFile when present.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider(defaults), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	content, err := readFile(path)
	switch {
	case err == nil:
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, err
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Capabilities.Primary.fillKey()
	cfg.Capabilities.Fallback.fillKey()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, domain.NewConfigurationError("config path %s is a directory", path)
	}
	if info.Size() > maxFileSize {
		return nil, domain.NewConfigurationError("config file %s exceeds %d bytes", path, maxFileSize)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

// envKey maps BLUEPRINT_STORE__REDIS__ADDR to store.redis.addr.
func envKey(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

func (p *ProviderConfig) fillKey() {
	if p.APIKey != "" {
		return
	}
	if name, ok := providerKeyEnv[p.Provider]; ok {
		p.APIKey = os.Getenv(name)
	}
}

// Validate rejects values no component can serve.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverFile, DriverRedis:
	default:
		return domain.NewConfigurationError("unknown store driver %q", c.Store.Driver)
	}
	if c.Store.Driver == DriverRedis && c.Store.Redis.Addr == "" {
		return domain.NewConfigurationError("store.redis.addr is required for the redis driver")
	}
	if r := c.Store.Redis; c.Store.Driver == DriverRedis &&
		(strings.HasPrefix(r.Prefix, r.LockPrefix) || strings.HasPrefix(r.LockPrefix, r.Prefix)) {
		return domain.NewConfigurationError("store.redis.lock_prefix %q overlaps store.redis.prefix %q", r.LockPrefix, r.Prefix)
	}
	for name, p := range map[string]ProviderConfig{"primary": c.Capabilities.Primary, "fallback": c.Capabilities.Fallback} {
		if _, ok := providerKeyEnv[p.Provider]; !ok {
			return domain.NewConfigurationError("unknown %s provider %q", name, p.Provider)
		}
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return domain.NewConfigurationError("http.port %d out of range", c.HTTP.Port)
	}
	if c.Scoring.CacheSize < 0 {
		return domain.NewConfigurationError("scoring.cache_size must not be negative")
	}
	if c.Capabilities.Rate.RPS < 0 || c.Capabilities.Rate.Burst < 0 {
		return domain.NewConfigurationError("capabilities.rate values must not be negative")
	}
	return nil
}
