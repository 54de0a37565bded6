package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"cwatch/internal/application/port"
	"cwatch/internal/domain/model"
)

type Repo struct {
	db *sql.DB
}

func New(path string) (*Repo, error) {
	// ensure directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) GetDB() *sql.DB {
	return r.db
}

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS blobs (
  key TEXT PRIMARY KEY,
  value BLOB NOT NULL,
  updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS latest_quotes (
  source TEXT NOT NULL,
  symbol TEXT NOT NULL,
  price TEXT NOT NULL,
  price_change TEXT NOT NULL,
  price_change_percent TEXT NOT NULL,
  ts_ms INTEGER NOT NULL,
  UNIQUE(source, symbol)
);
CREATE INDEX IF NOT EXISTS idx_latest_quotes_ts ON latest_quotes(ts_ms);
`)
	return err
}

func (r *Repo) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var v []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM blobs WHERE key=?`, key).Scan(&v)
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
		INSERT INTO blobs(key, value, updated_at)
		VALUES(?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
		value=excluded.value, updated_at=excluded.updated_at
	`, key, value, time.Now().UnixMilli())
	return err
}

// PublishQuote 记录每个币种的最新行情
func (r *Repo) PublishQuote(ctx context.Context, source string, q model.PriceQuote, ts int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO latest_quotes(source, symbol, price, price_change, price_change_percent, ts_ms)
		VALUES(?, ?, ?, ?, ?, ?)
		ON CONFLICT(source, symbol) DO UPDATE SET
		price=excluded.price, price_change=excluded.price_change,
		price_change_percent=excluded.price_change_percent, ts_ms=excluded.ts_ms
	`, source, q.Symbol, q.Price, q.PriceChange, q.PriceChangePercent, ts)
	return err
}

// LatestQuote 读取某个币种最近一次记录的行情
func (r *Repo) LatestQuote(ctx context.Context, source, symbol string) (model.PriceQuote, bool, error) {
	q := model.PriceQuote{Symbol: symbol}
	err := r.db.QueryRowContext(ctx, `
		SELECT price, price_change, price_change_percent FROM latest_quotes WHERE source=? AND symbol=?
	`, source, symbol).Scan(&q.Price, &q.PriceChange, &q.PriceChangePercent)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PriceQuote{}, false, nil
	}
	if err != nil {
		return model.PriceQuote{}, false, err
	}
	return q, true, nil
}

var (
	_ port.BlobStore      = (*Repo)(nil)
	_ port.QuotePublisher = (*Repo)(nil)
)
