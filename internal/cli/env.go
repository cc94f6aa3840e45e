package cli

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const envPrefix = "GRAPPLING_EVENTS_"

// envKey maps a flag name to its environment variable, e.g. max-events
// becomes GRAPPLING_EVENTS_MAX_EVENTS
func envKey(flag string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

func envString(flag, def string) string {
	if v, ok := os.LookupEnv(envKey(flag)); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func envInt(flag string, def int) int {
	if v, err := strconv.Atoi(envString(flag, "")); err == nil {
		return v
	}
	return def
}

func envBool(flag string, def bool) bool {
	if v, err := strconv.ParseBool(envString(flag, "")); err == nil {
		return v
	}
	return def
}

func envDuration(flag string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(envString(flag, "")); err == nil {
		return v
	}
	return def
}

func envList(flag string) []string {
	v := envString(flag, "")
	if v == "" {
		return nil
	}
	return strings.Split(v, ",")
}
