package postgres

import (
	"context"
	"net"
	"time"

	"github.com/cockroachdb/errors"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Ledger-api/pkg/config"
)

const (
	defaultMaxConns    = 10
	minConns           = 2
	maxConnLifetime    = time.Hour
	maxConnIdleTime    = 30 * time.Minute
	healthCheckPeriod  = time.Minute
	connectPingTimeout = 5 * time.Second
)

// NewPool abre el pool del libro: DATABASE_URL o DB_*, NUMERIC como decimal.Decimal y
// conexiones por IPv4 cuando el host la tiene.
func NewPool(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, errors.Wrap(err, "parse DSN")
	}
	poolConfig.ConnConfig.DialFunc = dialPreferIPv4

	poolConfig.MaxConns = defaultMaxConns
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	poolConfig.MinConns = min(minConns, poolConfig.MaxConns)
	poolConfig.MaxConnLifetime = maxConnLifetime
	poolConfig.MaxConnIdleTime = maxConnIdleTime
	poolConfig.HealthCheckPeriod = healthCheckPeriod

	// cantidades y tasas de las líneas
	poolConfig.AfterConnect = func(_ context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Wrap(err, "crear pool")
	}
	pingCtx, cancel := context.WithTimeout(ctx, connectPingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping DB")
	}
	return pool, nil
}

// dialPreferIPv4 marca tcp4 cuando el host resuelve a IPv4 (Docker suele no tener IPv6).
func dialPreferIPv4(ctx context.Context, network, addr string) (net.Conn, error) {
	var dialer net.Dialer
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	if ip, ok := lookupIPv4(ctx, host); ok {
		return dialer.DialContext(ctx, "tcp4", net.JoinHostPort(ip, port))
	}
	return dialer.DialContext(ctx, network, addr)
}

func lookupIPv4(ctx context.Context, host string) (string, bool) {
	if ip := net.ParseIP(host); ip != nil {
		return host, ip.To4() != nil
	}
	ips, err := net.DefaultResolver.LookupIP(ctx, "ip4", host)
	if err != nil || len(ips) == 0 {
		return "", false
	}
	return ips[0].String(), true
}
