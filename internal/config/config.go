package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds service configuration.
type Config struct {
	DatabaseURL string
	ServerAddr  string

	// SharePolicy is an optional expression evaluated against each proposed
	// percentage ("value", "count", "total"). Empty accepts everything the
	// built-in bounds already allow.
	SharePolicy string

	// Relay settings back the optional multi-node event relay. When disabled
	// events only reach clients connected to this process.
	RelayEnabled   bool
	RelayNodeID    string
	RelayAddr      string
	RelayDataDir   string
	RelayBootstrap bool
	// RelayPeerHTTP maps relay node IDs to their HTTP base URLs so a
	// follower can forward publishes to the leader.
	RelayPeerHTTP map[string]string

	RelayApplyTimeout time.Duration
}

// Load reads configuration from environment.
func Load() (*Config, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		user := getenv("POSTGRES_USER", "groupnest")
		pass := getenv("POSTGRES_PASSWORD", "groupnest_pass")
		db := getenv("POSTGRES_DB", "groupnest")
		host := getenv("POSTGRES_HOST", "localhost")
		port := getenv("POSTGRES_PORT", "5432")
		sslmode := getenv("DATABASE_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, sslmode)
	}
	addr := getenv("SERVER_ADDR", "0.0.0.0:8080")

	return &Config{
		DatabaseURL:       dsn,
		ServerAddr:        addr,
		SharePolicy:       os.Getenv("SHARE_POLICY"),
		RelayEnabled:      parseBool(getenv("RELAY_ENABLED", "false"), false),
		RelayNodeID:       getenv("RELAY_NODE_ID", "node-1"),
		RelayAddr:         getenv("RELAY_ADDR", "127.0.0.1:9301"),
		RelayDataDir:      getenv("RELAY_DATA_DIR", "data/relay"),
		RelayBootstrap:    parseBool(getenv("RELAY_BOOTSTRAP", "true"), true),
		RelayPeerHTTP:     parsePeerMap(os.Getenv("RELAY_PEER_HTTP")),
		RelayApplyTimeout: parseDuration(getenv("RELAY_APPLY_TIMEOUT", "5s"), 5*time.Second),
	}, nil
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func parseDuration(val string, def time.Duration) time.Duration {
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return def
	}
	return d
}

func parseBool(val string, def bool) bool {
	if val == "" {
		return def
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return def
	}
	return b
}

// parsePeerMap parses "node-1=http://a:8080,node-2=http://b:8080".
func parsePeerMap(val string) map[string]string {
	if val == "" {
		return nil
	}
	out := make(map[string]string)
	for _, pair := range strings.Split(val, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			continue
		}
		out[parts[0]] = parts[1]
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
