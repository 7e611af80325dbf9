package database

import (
	"fmt"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
)

// NormalizeMySQLDSN makes sure DATETIME columns scan into time.Time in the
// server's local zone, which is what the per-day invoice sequence relies on.
func NormalizeMySQLDSN(dsn string) (string, error) {
	cfg, err := gomysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid mysql DSN: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.Local
	if cfg.Params == nil {
		cfg.Params = map[string]string{}
	}
	if _, ok := cfg.Params["charset"]; !ok {
		cfg.Params["charset"] = "utf8mb4"
	}
	return cfg.FormatDSN(), nil
}
