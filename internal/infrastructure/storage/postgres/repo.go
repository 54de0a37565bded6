package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"cwatch/internal/application/port"
	"cwatch/internal/domain/model"
)

type Repo struct {
	db *sql.DB
}

func New(dsn string) (*Repo, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS blobs (
  key TEXT PRIMARY KEY,
  value BYTEA NOT NULL,
  updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS quote_snapshots (
  id BIGSERIAL PRIMARY KEY,
  source TEXT NOT NULL,
  symbol TEXT NOT NULL,
  price TEXT NOT NULL,
  price_change TEXT NOT NULL,
  price_change_percent TEXT NOT NULL,
  ts_ms BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_quote_snapshots_ts ON quote_snapshots(ts_ms);
`)
	return err
}

func (r *Repo) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var v []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM blobs WHERE key=$1`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (r *Repo) Put(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO blobs(key, value, updated_at) VALUES($1, $2, $3)
		ON CONFLICT(key) DO UPDATE SET value=EXCLUDED.value, updated_at=EXCLUDED.updated_at
	`, key, value, time.Now().UnixMilli())
	return err
}

// PublishQuote 追加一条行情快照（历史表，不做去重）
func (r *Repo) PublishQuote(ctx context.Context, source string, q model.PriceQuote, ts int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO quote_snapshots(source, symbol, price, price_change, price_change_percent, ts_ms)
		VALUES($1, $2, $3, $4, $5, $6)
	`, source, q.Symbol, q.Price, q.PriceChange, q.PriceChangePercent, ts)
	return err
}

var (
	_ port.BlobStore      = (*Repo)(nil)
	_ port.QuotePublisher = (*Repo)(nil)
)
