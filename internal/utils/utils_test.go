package utils

import (
	"crypto/tls"
	"crypto/x509"
	"os"
	"path/filepath"
	"testing"

	"market-map/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(config.Postgres{Host: "db", Port: "5433", User: "mm", Password: "p@ss", DB: "marketmap", SSLMode: "disable"})
	assert.Equal(t, "postgres://mm:p%40ss@db:5433/marketmap?sslmode=disable", dsn)

	dsn = PostgresDSN(config.Postgres{Host: "localhost", Port: "5432", User: "postgres", DB: "x", SSLMode: "require"})
	assert.Equal(t, "postgres://postgres@localhost:5432/x?sslmode=require", dsn)
}

func TestOpenRedisDisabled(t *testing.T) {
	assert.Nil(t, OpenRedis(config.Redis{Enabled: false, Host: "127.0.0.1", Port: "6379"}))
}

func TestEnsureSelfSignedCert(t *testing.T) {
	dir := t.TempDir()
	cert := filepath.Join(dir, "certs", "server.crt")
	key := filepath.Join(dir, "certs", "server.key")

	require.NoError(t, EnsureSelfSignedCert(cert, key, "map.example", "10.0.0.5"))
	pair, err := tls.LoadX509KeyPair(cert, key)
	require.NoError(t, err)
	leaf, err := x509.ParseCertificate(pair.Certificate[0])
	require.NoError(t, err)
	assert.Contains(t, leaf.DNSNames, "map.example")
	assert.Equal(t, "map.example", leaf.Subject.CommonName)
	assert.Len(t, leaf.IPAddresses, 3)

	st, err := os.Stat(cert)
	require.NoError(t, err)
	require.NoError(t, EnsureSelfSignedCert(cert, key))
	st2, err := os.Stat(cert)
	require.NoError(t, err)
	assert.Equal(t, st.ModTime(), st2.ModTime())
}
