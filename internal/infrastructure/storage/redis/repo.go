package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cwatch/internal/application/port"
	"cwatch/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

type Repo struct {
	rdb       *redis.Client
	prefix    string
	ttl       time.Duration
	keyLatest string // prefix + ":latest"
	quoteChan string
}

// LatestQuote 是写入 hash 和 pubsub 的行情消息
type LatestQuote struct {
	Source             string `json:"source"`
	Symbol             string `json:"symbol"`
	Price              string `json:"price"`
	PriceChange        string `json:"priceChange"`
	PriceChangePercent string `json:"priceChangePercent"`
	Ts                 int64  `json:"ts"`
}

func New(rdb *redis.Client, prefix string, ttl time.Duration, quoteChan string) *Repo {
	if strings.TrimSpace(prefix) == "" {
		prefix = "cwatch"
	}
	if strings.TrimSpace(quoteChan) == "" {
		quoteChan = prefix + ":quotes:pub"
	}
	return &Repo{
		rdb:       rdb,
		prefix:    prefix,
		ttl:       ttl,
		keyLatest: prefix + ":latest",
		quoteChan: quoteChan,
	}
}

func (r *Repo) key(k string) string { return r.prefix + ":" + k }

func (r *Repo) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (r *Repo) Put(ctx context.Context, key string, value []byte) error {
	return r.rdb.Set(ctx, r.key(key), value, 0).Err()
}

func (r *Repo) Close() error { return r.rdb.Close() }

func (r *Repo) PublishQuote(ctx context.Context, source string, q model.PriceQuote, ts int64) error {
	if q.Price == "" {
		return nil
	}
	lq := LatestQuote{
		Source:             source,
		Symbol:             q.Symbol,
		Price:              q.Price,
		PriceChange:        q.PriceChange,
		PriceChangePercent: q.PriceChangePercent,
		Ts:                 ts,
	}
	b, _ := json.Marshal(lq)

	// Hash: field = "BINANCE:BTC" -> json
	field := fmt.Sprintf("%s:%s", source, q.Symbol)
	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, r.keyLatest, field, string(b))
	if r.ttl > 0 {
		pipe.Expire(ctx, r.keyLatest, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	// PubSub: PUBLISH <channel> json
	return r.rdb.Publish(ctx, r.quoteChan, string(b)).Err()
}

var (
	_ port.BlobStore      = (*Repo)(nil)
	_ port.QuotePublisher = (*Repo)(nil)
)
