// Package config: environment-driven configuration. A local .env is loaded first (godotenv),
// then viper resolves every key from the process environment with the defaults below.
package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Sources struct {
	Supply          string
	Master          string
	Persona         string
	SupplyEncoding  string
	MasterEncoding  string
	PersonaEncoding string
	PersonaPolicy   string
}

type Postgres struct {
	Enabled  bool
	Host     string
	Port     string
	User     string
	Password string
	DB       string
	SSLMode  string
	MaxOpen  int
	MaxIdle  int
}

type Redis struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type Trend struct {
	CacheTTL time.Duration
	LRUSize  int

	// IngestSource: CSV path or URL refreshed weekly by the server; empty disables the job.
	IngestSource string
	IngestHour   int
	IngestTZ     string
}

type TLS struct {
	Enable   bool
	CertPath string
	KeyPath  string
}

type Config struct {
	Sources  Sources
	Postgres Postgres
	Redis    Redis
	Trend    Trend
	TLS      TLS

	Addr    string
	APIBase string
	UIDir   string

	GeoIPPath      string
	LocateRadiusKm float64
	AdminToken     string

	RateLimitEnabled bool
	RateLimitQPS     int

	LogLevel  string
	LogFormat string
}

func setDefaults(v *viper.Viper) {
	dataDir := "data"
	v.SetDefault("SUPPLY_SOURCE", filepath.Join(dataDir, "local_supply_demand.csv"))
	v.SetDefault("MASTER_SOURCE", filepath.Join(dataDir, "dim_region_master.csv"))
	v.SetDefault("PERSONA_SOURCE", filepath.Join(dataDir, "persona_top.csv"))
	v.SetDefault("SUPPLY_ENCODING", "utf-8")
	v.SetDefault("MASTER_ENCODING", "euc-kr")
	v.SetDefault("PERSONA_ENCODING", "utf-8")
	v.SetDefault("PERSONA_POLICY", "last_row")

	v.SetDefault("ADDR", ":8080")
	v.SetDefault("API_BASE", "/api")
	v.SetDefault("UI_DIST", filepath.Join("ui", "dist"))
	v.SetDefault("TLS_ENABLE", false)
	v.SetDefault("TLS_CERT_PATH", filepath.Join(dataDir, "certs", "server.crt"))
	v.SetDefault("TLS_KEY_PATH", filepath.Join(dataDir, "certs", "server.key"))

	v.SetDefault("TREND_STORE_ENABLED", true)
	v.SetDefault("PG_HOST", "localhost")
	v.SetDefault("PG_PORT", "5432")
	v.SetDefault("PG_USER", "postgres")
	v.SetDefault("PG_PASSWORD", "")
	v.SetDefault("PG_DB", "marketmap")
	v.SetDefault("PG_SSLMODE", "disable")
	v.SetDefault("PG_MAX_OPEN_CONNS", 20)
	v.SetDefault("PG_MAX_IDLE_CONNS", 10)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASS", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("TREND_CACHE_TTL", "1h")
	v.SetDefault("TREND_LRU_SIZE", 512)
	v.SetDefault("TREND_INGEST_SOURCE", "")
	v.SetDefault("TREND_INGEST_HOUR", 4)
	v.SetDefault("TREND_INGEST_TZ", "Asia/Seoul")

	v.SetDefault("GEOIP_CITY_PATH", "")
	v.SetDefault("LOCATE_RADIUS_KM", 50.0)
	v.SetDefault("ADMIN_TOKEN", "")
	v.SetDefault("RATE_LIMIT_ENABLED", false)
	v.SetDefault("RATE_LIMIT_QPS", 200)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
}

// Load: read .env (if present) and resolve the configuration.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	return FromViper(newViper()), nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// FromViper: map a configured viper instance onto Config.
func FromViper(v *viper.Viper) *Config {
	ttl := v.GetDuration("TREND_CACHE_TTL")
	if ttl <= 0 {
		ttl = time.Hour
	}
	lru := v.GetInt("TREND_LRU_SIZE")
	if lru <= 0 {
		lru = 512
	}
	qps := v.GetInt("RATE_LIMIT_QPS")
	if qps <= 0 {
		qps = 200
	}
	radius := v.GetFloat64("LOCATE_RADIUS_KM")
	if radius <= 0 {
		radius = 50
	}
	apiBase := "/" + strings.Trim(v.GetString("API_BASE"), "/")

	return &Config{
		Sources: Sources{
			Supply:          v.GetString("SUPPLY_SOURCE"),
			Master:          v.GetString("MASTER_SOURCE"),
			Persona:         v.GetString("PERSONA_SOURCE"),
			SupplyEncoding:  v.GetString("SUPPLY_ENCODING"),
			MasterEncoding:  v.GetString("MASTER_ENCODING"),
			PersonaEncoding: v.GetString("PERSONA_ENCODING"),
			PersonaPolicy:   v.GetString("PERSONA_POLICY"),
		},
		Postgres: Postgres{
			Enabled:  v.GetBool("TREND_STORE_ENABLED"),
			Host:     v.GetString("PG_HOST"),
			Port:     v.GetString("PG_PORT"),
			User:     v.GetString("PG_USER"),
			Password: v.GetString("PG_PASSWORD"),
			DB:       v.GetString("PG_DB"),
			SSLMode:  v.GetString("PG_SSLMODE"),
			MaxOpen:  v.GetInt("PG_MAX_OPEN_CONNS"),
			MaxIdle:  v.GetInt("PG_MAX_IDLE_CONNS"),
		},
		Redis: Redis{
			Enabled:  v.GetBool("REDIS_ENABLED"),
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASS"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Trend: Trend{
			CacheTTL:     ttl,
			LRUSize:      lru,
			IngestSource: v.GetString("TREND_INGEST_SOURCE"),
			IngestHour:   v.GetInt("TREND_INGEST_HOUR"),
			IngestTZ:     v.GetString("TREND_INGEST_TZ"),
		},
		TLS: TLS{
			Enable:   v.GetBool("TLS_ENABLE"),
			CertPath: v.GetString("TLS_CERT_PATH"),
			KeyPath:  v.GetString("TLS_KEY_PATH"),
		},
		Addr:             v.GetString("ADDR"),
		APIBase:          apiBase,
		UIDir:            v.GetString("UI_DIST"),
		GeoIPPath:        v.GetString("GEOIP_CITY_PATH"),
		LocateRadiusKm:   radius,
		AdminToken:       v.GetString("ADMIN_TOKEN"),
		RateLimitEnabled: v.GetBool("RATE_LIMIT_ENABLED"),
		RateLimitQPS:     qps,
		LogLevel:         v.GetString("LOG_LEVEL"),
		LogFormat:        v.GetString("LOG_FORMAT"),
	}
}
