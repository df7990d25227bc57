package utils

import (
	"database/sql"
	"net/url"

	"market-map/internal/config"

	_ "github.com/lib/pq"
)

// PostgresDSN: build a lib/pq URL from config. The password is escaped.
func PostgresDSN(c config.Postgres) string {
	u := url.URL{
		Scheme:   "postgres",
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.DB,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else {
		u.User = url.User(c.User)
	}
	return u.String()
}

// OpenPostgres: open the trend store pool. sql.Open does not dial; callers Ping when needed.
func OpenPostgres(c config.Postgres) (*sql.DB, error) {
	db, err := sql.Open("postgres", PostgresDSN(c))
	if err != nil {
		return nil, err
	}
	maxOpen, maxIdle := c.MaxOpen, c.MaxIdle
	if maxOpen <= 0 {
		maxOpen = 20
	}
	if maxIdle <= 0 {
		maxIdle = 10
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	return db, nil
}
