package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// envOr parses the variable named key with parse, returning def when it is
// unset or malformed.
func envOr[T any](key string, def T, parse func(string) (T, error)) T {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	v, err := parse(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return v
}

func getEnv(key, defaultVal string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	return envOr(key, defaultVal, strconv.Atoi)
}

func getEnvAsBool(key string, defaultVal bool) bool {
	return envOr(key, defaultVal, strconv.ParseBool)
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	return envOr(key, defaultVal, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	return envOr(key, defaultVal, time.ParseDuration)
}

// getEnvAsStringSlice splits a comma separated list, dropping blanks. An
// empty result keeps defaults.
func getEnvAsStringSlice(key string, defaults []string) []string {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return defaults
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaults
	}
	return out
}
