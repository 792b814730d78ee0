// Package storage holds the durable key-value backends the clinic store
// mirrors its collections into. Every value is a JSON document.
package storage

import (
	"context"
	"errors"
)

// ErrMiss 表示 key 不存在
var ErrMiss = errors.New("storage: key not found")

// KV 抽象的持久化 KV 存储（单元测试中用 MemoryKV 替换）
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}
