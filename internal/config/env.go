package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// dotEnvFiles are tried in order inside each directory; the first hit wins.
var dotEnvFiles = []string{".env.local", ".env"}

// databaseURLKeys are checked in priority order.
var databaseURLKeys = []string{
	"DATABASE_URL",
	"DATABASE_URL_NON_POOLING",
	"DATABASE_URL_UNPOOLED",
	"POSTGRES_URL",
}

func readDotEnv(dirs ...string) (map[string]string, error) {
	for _, dir := range dirs {
		for _, name := range dotEnvFiles {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					continue
				}
				return nil, fmt.Errorf("stat %s: %w", p, err)
			}
			values, err := godotenv.Read(p)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", p, err)
			}
			return values, nil
		}
	}
	return map[string]string{}, nil
}

// env resolves a key from the process environment first, then dotenv values.
type env struct {
	dotenv map[string]string
}

func newEnv(dotenv map[string]string) env {
	return env{dotenv: dotenv}
}

func (e env) get(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return e.dotenv[key]
}

func (e env) first(keys ...string) string {
	for _, k := range keys {
		if v := e.get(k); v != "" {
			return v
		}
	}
	return ""
}

func (c *Config) applyEnvOverrides(e env) {
	if v := e.get("HTTP_PORT"); v != "" {
		c.HTTP.Port = v
	}
	if v := e.get("REQUEST_TIMEOUT"); v != "" {
		c.HTTP.RequestTimeout = v
	}

	if v := e.first(databaseURLKeys...); v != "" {
		c.Database.URL = v
	}
	if v := e.get("DB_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := e.get("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Database.Port = port
		}
	}
	if v := e.get("DB_USER"); v != "" {
		c.Database.User = v
	}
	if v := e.get("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := e.get("DB_NAME"); v != "" {
		c.Database.Name = v
	}
	if v := e.get("MIGRATIONS_PATH"); v != "" {
		c.Database.MigrationsPath = v
	}
	if v := e.get("DB_QUERY_TIMEOUT"); v != "" {
		c.Database.QueryTimeout = v
	}

	if v := e.get("CATALOG_DB_PATH"); v != "" {
		c.Catalog.DBPath = v
	}
	if v := e.get("CATALOG_MIGRATIONS_PATH"); v != "" {
		c.Catalog.MigrationsPath = v
	}

	if v := e.get("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if v := e.get("KAFKA_ORDER_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}

	if v := e.get("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// MaskedDatabaseURL hides the password portion of a connection URL for logging.
func MaskedDatabaseURL(raw string) string {
	at := strings.LastIndex(raw, "@")
	scheme := strings.Index(raw, "://")
	if at < 0 || scheme < 0 {
		return raw
	}
	userinfo := raw[scheme+3 : at]
	colon := strings.Index(userinfo, ":")
	if colon < 0 {
		return raw
	}
	return raw[:scheme+3] + userinfo[:colon] + ":***" + raw[at:]
}
