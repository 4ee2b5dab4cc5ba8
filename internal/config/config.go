package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string
	HTTPAddr string
	GRPCAddr string

	PGDSN string

	RedisAddr    string
	NotifyStream string

	MQTTBroker      string
	MQTTTopicPrefix string

	AuthSecret string
	DevTokens  bool

	RateLimitPerSec float64
	RateLimitBurst  int
	// TrustedProxies are the peers whose X-Forwarded-For header is honoured.
	TrustedProxies []*net.IPNet
}

// Load reads .env when present and then the process environment. Variables
// already set in the environment win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:          envOr("APP_ENV", "development"),
		HTTPAddr:        envOr("HTTP_ADDR", ":8080"),
		GRPCAddr:        envOr("GRPC_ADDR", ":9090"),
		PGDSN:           os.Getenv("PROCURA_PG_DSN"),
		RedisAddr:       os.Getenv("PROCURA_REDIS_ADDR"),
		NotifyStream:    envOr("PROCURA_NOTIFY_STREAM", "procura:notifications"),
		MQTTBroker:      os.Getenv("PROCURA_MQTT_BROKER"),
		MQTTTopicPrefix: envOr("PROCURA_MQTT_TOPIC_PREFIX", "procura/suppliers"),
		AuthSecret:      os.Getenv("PROCURA_AUTH_SECRET"),
		RateLimitPerSec: 50,
		RateLimitBurst:  100,
	}

	var err error
	if cfg.DevTokens, err = boolEnv("PROCURA_DEV_TOKENS", false); err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_PER_SEC")); v != "" {
		cfg.RateLimitPerSec, err = strconv.ParseFloat(v, 64)
		if err != nil || cfg.RateLimitPerSec < 0 {
			return nil, fmt.Errorf("config: RATE_LIMIT_PER_SEC: invalid value %q", v)
		}
	}
	if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); v != "" {
		cfg.RateLimitBurst, err = strconv.Atoi(v)
		if err != nil || cfg.RateLimitBurst < 0 {
			return nil, fmt.Errorf("config: RATE_LIMIT_BURST: invalid value %q", v)
		}
	}
	if cfg.TrustedProxies, err = parseNets(os.Getenv("PROCURA_TRUSTED_PROXIES")); err != nil {
		return nil, err
	}
	if cfg.AuthSecret == "" {
		return nil, fmt.Errorf("config: PROCURA_AUTH_SECRET is required")
	}
	if cfg.Production() && cfg.DevTokens {
		return nil, fmt.Errorf("config: PROCURA_DEV_TOKENS cannot be enabled in production")
	}
	return cfg, nil
}

func (c *Config) Production() bool { return c.AppEnv == "production" }

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func boolEnv(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s: invalid value %q", key, v)
	}
	return b, nil
}

// parseNets reads a comma separated list of CIDRs or bare IPs.
func parseNets(raw string) ([]*net.IPNet, error) {
	var out []*net.IPNet
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if !strings.Contains(item, "/") {
			ip := net.ParseIP(item)
			if ip == nil {
				return nil, fmt.Errorf("config: PROCURA_TRUSTED_PROXIES: invalid address %q", item)
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			out = append(out, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(item)
		if err != nil {
			return nil, fmt.Errorf("config: PROCURA_TRUSTED_PROXIES: invalid network %q", item)
		}
		out = append(out, n)
	}
	return out, nil
}
