package port

import "context"

// BlobStore 键值存储，持久化层只依赖这一接口
// Get 在 key 不存在时返回 ok=false 且 err=nil
type BlobStore interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}
