package database

import (
	"net"
	"net/url"
	"strconv"

	"github.com/rickgao/rtds-recorder/internal/config"
	"github.com/rickgao/rtds-recorder/internal/version"
)

// BuildConnString builds a PostgreSQL URL from config. The recorder identifies
// itself through application_name so its sessions show up in pg_stat_activity.
func BuildConnString(cfg config.DBConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = config.DefaultDBSSLMode
	}

	q := url.Values{}
	q.Set("sslmode", sslMode)
	q.Set("application_name", version.UserAgent())

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}
