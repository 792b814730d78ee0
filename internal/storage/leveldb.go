package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// LevelDBKV stores each key as one LevelDB record on local disk.
type LevelDBKV struct {
	db   *leveldb.DB
	sync *opt.WriteOptions
}

func NewLevelDBKV(db *leveldb.DB) *LevelDBKV {
	// fsync every write: a returned Set must survive a crash
	return &LevelDBKV{db: db, sync: &opt.WriteOptions{Sync: true}}
}

// OpenLevelDB 打开（或创建）path 下的 LevelDB
func OpenLevelDB(path string) (*LevelDBKV, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb at %s: %w", path, err)
	}
	return NewLevelDBKV(db), nil
}

func (l *LevelDBKV) Get(_ context.Context, key string) (string, error) {
	v, err := l.db.Get([]byte(key), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return "", ErrMiss
		}
		return "", err
	}
	return string(v), nil
}

func (l *LevelDBKV) Set(_ context.Context, key string, value string) error {
	return l.db.Put([]byte(key), []byte(value), l.sync)
}

func (l *LevelDBKV) Delete(_ context.Context, key string) error {
	return l.db.Delete([]byte(key), l.sync)
}

func (l *LevelDBKV) Close() error {
	return l.db.Close()
}
