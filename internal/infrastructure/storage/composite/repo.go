package composite

import (
	"context"
	"errors"

	"cwatch/internal/application/port"
	"cwatch/internal/domain/model"
)

// Repo 以第一个 store 为主：读只走主库，写入所有 store
type Repo struct {
	stores []port.BlobStore
}

func New(stores ...port.BlobStore) *Repo {
	// nil stores are allowed; filter in constructor
	out := make([]port.BlobStore, 0, len(stores))
	for _, s := range stores {
		if s != nil {
			out = append(out, s)
		}
	}
	return &Repo{stores: out}
}

func (r *Repo) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if len(r.stores) == 0 {
		return nil, false, nil
	}
	return r.stores[0].Get(ctx, key)
}

func (r *Repo) Put(ctx context.Context, key string, value []byte) error {
	var firstErr error
	for _, s := range r.stores {
		if err := s.Put(ctx, key, value); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Repo) Close() error {
	var errs []error
	for _, s := range r.stores {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Publishers 把行情写到多个下游
type Publishers []port.QuotePublisher

func (p Publishers) PublishQuote(ctx context.Context, source string, q model.PriceQuote, ts int64) error {
	var firstErr error
	for _, pub := range p {
		if pub == nil {
			continue
		}
		if err := pub.PublishQuote(ctx, source, q, ts); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var (
	_ port.BlobStore      = (*Repo)(nil)
	_ port.QuotePublisher = Publishers(nil)
)
