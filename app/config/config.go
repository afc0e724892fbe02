package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/joho/godotenv"

	"terranova/internal/domain/entity"
)

type Config struct {
	Server  HTTPServerConfig `json:"server"`
	Planner PlannerConfig    `json:"planner"`
	Session SessionConfig    `json:"session"`
	Mongo   MongoConfig      `json:"mongo"`
	Redis   RedisConfig      `json:"redis"`
	Maps    MapsConfig       `json:"maps"`
	Metrics MetricsConfig    `json:"metrics"`
	Display DisplayConfig    `json:"display"`
}

type HTTPServerConfig struct {
	Host         string        `json:"host" default:"0.0.0.0"`
	Port         int           `json:"port" default:"8080"`
	ReadTimeout  time.Duration `json:"read_timeout" default:"30s"`
	WriteTimeout time.Duration `json:"write_timeout" default:"60s"`
}

type PlannerConfig struct {
	// BaseURL wins over PublicOrigin when both are set.
	BaseURL         string        `json:"base_url"`
	PublicOrigin    string        `json:"public_origin"`
	ExternalBackend string        `json:"external_backend"`
	Variant         string        `json:"variant" default:"generate_plan"`
	Source          string        `json:"source" default:"fallback"`
	Timeout         time.Duration `json:"timeout" default:"30s"`
}

type SessionConfig struct {
	Store           string        `json:"store" default:"memory"`
	TTL             time.Duration `json:"ttl" default:"30m"`
	JanitorInterval time.Duration `json:"janitor_interval" default:"1m"`
}

type MongoConfig struct {
	URI      string `json:"uri" default:"mongodb://localhost:27017"`
	Database string `json:"database" default:"terranova"`
}

type RedisConfig struct {
	Addr     string `json:"addr" default:"localhost:6379"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type MapsConfig struct {
	Dir string `json:"dir" default:"./generated_maps"`
}

type MetricsConfig struct {
	Addr string `json:"addr" default:":2112"`
}

type DisplayConfig struct {
	RevealStep    time.Duration `json:"reveal_step" default:"300ms"`
	ViewportWidth int           `json:"viewport_width" default:"1280"`
}

func Default() *Config {
	return &Config{
		Server: HTTPServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Planner: PlannerConfig{
			Variant: string(entity.VariantGeneratePlan),
			Source:  "fallback",
			Timeout: 30 * time.Second,
		},
		Session: SessionConfig{
			Store:           "memory",
			TTL:             30 * time.Minute,
			JanitorInterval: time.Minute,
		},
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "terranova",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Maps: MapsConfig{
			Dir: "./generated_maps",
		},
		Metrics: MetricsConfig{
			Addr: ":2112",
		},
		Display: DisplayConfig{
			RevealStep:    300 * time.Millisecond,
			ViewportWidth: 1280,
		},
	}
}

// Load builds the config from defaults, then the optional HCL file at path,
// then the environment (including a .env file in the working directory).
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	var errs []error
	str := func(dst *string, key string) {
		*dst = getEnv(key, *dst)
	}
	num := func(dst *int, key string) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(dst *time.Duration, key string) {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str(&cfg.Server.Host, "SERVER_HOST")
	num(&cfg.Server.Port, "SERVER_PORT")
	dur(&cfg.Server.ReadTimeout, "SERVER_READ_TIMEOUT")
	dur(&cfg.Server.WriteTimeout, "SERVER_WRITE_TIMEOUT")

	str(&cfg.Planner.BaseURL, "PLANNER_BASE_URL")
	str(&cfg.Planner.PublicOrigin, "PUBLIC_ORIGIN")
	str(&cfg.Planner.ExternalBackend, "EXTERNAL_BACKEND_URL")
	str(&cfg.Planner.Variant, "PLANNER_VARIANT")
	str(&cfg.Planner.Source, "DATA_SOURCE")
	dur(&cfg.Planner.Timeout, "PLANNER_TIMEOUT")

	str(&cfg.Session.Store, "SESSION_STORE")
	dur(&cfg.Session.TTL, "SESSION_TTL")
	dur(&cfg.Session.JanitorInterval, "JANITOR_INTERVAL")

	str(&cfg.Mongo.URI, "MONGO_URI")
	str(&cfg.Mongo.Database, "MONGO_DB")

	str(&cfg.Redis.Addr, "REDIS_ADDR")
	str(&cfg.Redis.Password, "REDIS_PASSWORD")
	num(&cfg.Redis.DB, "REDIS_DB")

	str(&cfg.Maps.Dir, "MAPS_DIR")
	str(&cfg.Metrics.Addr, "METRICS_ADDR")

	dur(&cfg.Display.RevealStep, "REVEAL_STEP")
	num(&cfg.Display.ViewportWidth, "VIEWPORT_WIDTH")

	return errors.Join(errs...)
}

func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port %d out of range", c.Server.Port))
	}
	if _, err := entity.ParseVariant(c.Planner.Variant); err != nil {
		errs = append(errs, err)
	}
	switch c.Planner.Source {
	case "live", "demo", "fallback":
	default:
		errs = append(errs, fmt.Errorf("data source must be live, demo or fallback, got %q", c.Planner.Source))
	}
	switch c.Session.Store {
	case "memory", "redis", "mongo":
	default:
		errs = append(errs, fmt.Errorf("session store must be memory, redis or mongo, got %q", c.Session.Store))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session ttl must be positive"))
	}
	if c.Planner.Timeout <= 0 {
		errs = append(errs, errors.New("planner timeout must be positive"))
	}
	if c.Display.ViewportWidth <= 0 {
		errs = append(errs, errors.New("viewport width must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// file mirrors Config for HCL decoding. Every block and attribute is optional.
type file struct {
	Server *struct {
		Host         *string `hcl:"host,optional"`
		Port         *int    `hcl:"port,optional"`
		ReadTimeout  *string `hcl:"read_timeout,optional"`
		WriteTimeout *string `hcl:"write_timeout,optional"`
	} `hcl:"server,block"`
	Planner *struct {
		BaseURL         *string `hcl:"base_url,optional"`
		PublicOrigin    *string `hcl:"public_origin,optional"`
		ExternalBackend *string `hcl:"external_backend,optional"`
		Variant         *string `hcl:"variant,optional"`
		Source          *string `hcl:"source,optional"`
		Timeout         *string `hcl:"timeout,optional"`
	} `hcl:"planner,block"`
	Session *struct {
		Store           *string `hcl:"store,optional"`
		TTL             *string `hcl:"ttl,optional"`
		JanitorInterval *string `hcl:"janitor_interval,optional"`
	} `hcl:"session,block"`
	Mongo *struct {
		URI      *string `hcl:"uri,optional"`
		Database *string `hcl:"database,optional"`
	} `hcl:"mongo,block"`
	Redis *struct {
		Addr     *string `hcl:"addr,optional"`
		Password *string `hcl:"password,optional"`
		DB       *int    `hcl:"db,optional"`
	} `hcl:"redis,block"`
	Maps *struct {
		Dir *string `hcl:"dir,optional"`
	} `hcl:"maps,block"`
	Metrics *struct {
		Addr *string `hcl:"addr,optional"`
	} `hcl:"metrics,block"`
	Display *struct {
		RevealStep    *string `hcl:"reveal_step,optional"`
		ViewportWidth *int    `hcl:"viewport_width,optional"`
	} `hcl:"display,block"`
}

func applyFile(cfg *Config, path string) error {
	var f file
	if err := hclsimple.DecodeFile(path, nil, &f); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}

	var errs []error
	setStr := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	setInt := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	setDur := func(dst *time.Duration, v *string, name string) {
		if v == nil {
			return
		}
		d, err := time.ParseDuration(*v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			return
		}
		*dst = d
	}

	if s := f.Server; s != nil {
		setStr(&cfg.Server.Host, s.Host)
		setInt(&cfg.Server.Port, s.Port)
		setDur(&cfg.Server.ReadTimeout, s.ReadTimeout, "server.read_timeout")
		setDur(&cfg.Server.WriteTimeout, s.WriteTimeout, "server.write_timeout")
	}
	if p := f.Planner; p != nil {
		setStr(&cfg.Planner.BaseURL, p.BaseURL)
		setStr(&cfg.Planner.PublicOrigin, p.PublicOrigin)
		setStr(&cfg.Planner.ExternalBackend, p.ExternalBackend)
		setStr(&cfg.Planner.Variant, p.Variant)
		setStr(&cfg.Planner.Source, p.Source)
		setDur(&cfg.Planner.Timeout, p.Timeout, "planner.timeout")
	}
	if s := f.Session; s != nil {
		setStr(&cfg.Session.Store, s.Store)
		setDur(&cfg.Session.TTL, s.TTL, "session.ttl")
		setDur(&cfg.Session.JanitorInterval, s.JanitorInterval, "session.janitor_interval")
	}
	if m := f.Mongo; m != nil {
		setStr(&cfg.Mongo.URI, m.URI)
		setStr(&cfg.Mongo.Database, m.Database)
	}
	if r := f.Redis; r != nil {
		setStr(&cfg.Redis.Addr, r.Addr)
		setStr(&cfg.Redis.Password, r.Password)
		setInt(&cfg.Redis.DB, r.DB)
	}
	if m := f.Maps; m != nil {
		setStr(&cfg.Maps.Dir, m.Dir)
	}
	if m := f.Metrics; m != nil {
		setStr(&cfg.Metrics.Addr, m.Addr)
	}
	if d := f.Display; d != nil {
		setDur(&cfg.Display.RevealStep, d.RevealStep, "display.reveal_step")
		setInt(&cfg.Display.ViewportWidth, d.ViewportWidth)
	}
	return errors.Join(errs...)
}
