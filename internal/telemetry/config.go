package telemetry

import (
	"strings"
	"time"
)

const (
	envPrefix      = "NETHOP_TRACE_OTEL_"
	EnvEndpoint    = envPrefix + "ENDPOINT"
	EnvInsecure    = envPrefix + "INSECURE"
	EnvHeaders     = envPrefix + "HEADERS"
	EnvService     = envPrefix + "SERVICE"
	EnvDialTimeout = envPrefix + "TIMEOUT"
)

type Config struct {
	Endpoint    string
	Insecure    bool
	Headers     map[string]string
	ServiceName string
	DialTimeout time.Duration
}

func Default() Config {
	return Config{
		ServiceName: "nethop",
		DialTimeout: 5 * time.Second,
	}
}

// Enabled reports whether an OTLP endpoint is configured.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Endpoint) != ""
}

// ConfigFromEnv overlays the NETHOP_TRACE_OTEL_* variables on the defaults.
// Invalid values are ignored.
func ConfigFromEnv(getenv func(string) string) Config {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}

	cfg := Default()
	if val := strings.TrimSpace(getenv(EnvEndpoint)); val != "" {
		cfg.Endpoint = val
	}
	if parsed, ok := parseBool(getenv(EnvInsecure)); ok {
		cfg.Insecure = parsed
	}
	if val := strings.TrimSpace(getenv(EnvService)); val != "" {
		cfg.ServiceName = val
	}
	if val := strings.TrimSpace(getenv(EnvDialTimeout)); val != "" {
		if dur, err := time.ParseDuration(val); err == nil && dur > 0 {
			cfg.DialTimeout = dur
		}
	}
	cfg.Headers = ParseHeaders(getenv(EnvHeaders))
	return cfg
}

// ParseHeaders converts comma separated key=value pairs into a header map.
func ParseHeaders(spec string) map[string]string {
	var headers map[string]string
	for _, entry := range strings.Split(spec, ",") {
		key, value, _ := strings.Cut(strings.TrimSpace(entry), "=")
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if headers == nil {
			headers = make(map[string]string)
		}
		headers[key] = strings.TrimSpace(value)
	}
	return headers
}

func parseBool(value string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
