package telemetry

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	envEndpoint    = "ESTERM_OTLP_ENDPOINT"
	envInsecure    = "ESTERM_OTLP_INSECURE"
	envService     = "ESTERM_OTLP_SERVICE"
	envDialTimeout = "ESTERM_OTLP_TIMEOUT"
	envHeaders     = "ESTERM_OTLP_HEADERS"
)

type Config struct {
	Endpoint    string
	Insecure    bool
	ServiceName string
	Version     string
	DialTimeout time.Duration
	Headers     map[string]string
}

// Enabled reports whether spans should leave the process. An empty
// endpoint means telemetry stays off.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Endpoint) != ""
}

// ConfigFromEnv reads exporter settings through getenv so tests can
// inject their own environment.
func ConfigFromEnv(getenv func(string) string) Config {
	cfg := Config{
		Endpoint:    strings.TrimSpace(getenv(envEndpoint)),
		ServiceName: strings.TrimSpace(getenv(envService)),
	}
	if v := strings.TrimSpace(getenv(envInsecure)); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			cfg.Insecure = parsed
		}
	}
	if v := strings.TrimSpace(getenv(envDialTimeout)); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.DialTimeout = d
		}
	}
	if headers, err := ParseHeaders(getenv(envHeaders)); err == nil {
		cfg.Headers = headers
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "esterm"
	}
	return cfg
}

// ParseHeaders splits "k=v, k2=v2" exporter header lists.
func ParseHeaders(raw string) (map[string]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	headers := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, found := strings.Cut(pair, "=")
		if !found {
			return nil, fmt.Errorf("malformed header %q, want key=value", pair)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("malformed header %q, empty key", pair)
		}
		headers[key] = strings.TrimSpace(value)
	}
	if len(headers) == 0 {
		return nil, nil
	}
	return headers, nil
}
