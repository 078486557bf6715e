package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type InvalidationCfg struct {
	Enabled bool
	Topic   string
	Brokers string
	GroupID string
}

type SourceCfg struct {
	BaseURL string
	Timeout time.Duration
}

type Config struct {
	Addr           string
	LogLevel       string
	NVR            SourceCfg
	Natura         SourceCfg
	Ramsar         SourceCfg
	RedisAddr      string
	CacheEnabled   bool
	CacheOpTimeout time.Duration
	CacheTTL       time.Duration
	DetailLRUSize  int
	CellRes        int
	Invalidation   InvalidationCfg
}

func FromEnv() Config {
	return Config{
		Addr:     getenv("ADDR", ":8090"),
		LogLevel: getenv("LOG_LEVEL", "info"),
		NVR: SourceCfg{
			BaseURL: getenv("NVR_URL", "https://geodata.naturvardsverket.se/nvr/api"),
			Timeout: getduration("NVR_TIMEOUT", 10*time.Second),
		},
		Natura: SourceCfg{
			BaseURL: getenv("NATURA_URL", "https://natura2000.eea.europa.eu/api"),
			Timeout: getduration("NATURA_TIMEOUT", 10*time.Second),
		},
		Ramsar: SourceCfg{
			BaseURL: getenv("RAMSAR_URL", "https://rsis.ramsar.org/api"),
			Timeout: getduration("RAMSAR_TIMEOUT", 10*time.Second),
		},
		RedisAddr:      getenv("REDIS_ADDR", "localhost:6379"),
		CacheEnabled:   getbool("CACHE_ENABLED", false),
		CacheOpTimeout: getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),
		CacheTTL:       getduration("CACHE_TTL", 5*time.Minute),
		DetailLRUSize:  getint("DETAIL_LRU_SIZE", 512),
		CellRes:        getint("CELL_RES", 4),
		Invalidation: InvalidationCfg{
			Enabled: getbool("INVALIDATION_ENABLED", false),
			Topic:   getenv("KAFKA_TOPIC", "area-updates"),
			Brokers: getenv("KAFKA_BROKERS", "localhost:9092"),
			GroupID: getenv("KAFKA_GROUP_ID", "naturatlas-invalidator"),
		},
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
