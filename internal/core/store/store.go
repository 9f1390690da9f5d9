// Package store 提供餐點計畫使用的鍵值儲存（記憶體或 Redis）。
package store

import (
	"context"
	"strings"
)

// Store 以字串鍵保存 JSON 內容
type Store interface {
	// Get 讀取鍵值；不存在時 ok 為 false 且 err 為 nil
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte) error
}

// Namespaced 將所有鍵加上前綴 "<ns>:"
type Namespaced struct {
	Store
	ns string
}

// WithNamespace 回傳加上命名空間的 Store；ns 為空時原樣回傳
func WithNamespace(s Store, ns string) Store {
	ns = strings.TrimSpace(ns)
	if ns == "" {
		return s
	}
	return &Namespaced{Store: s, ns: ns}
}

// Key 實際使用的鍵
func (n *Namespaced) Key(key string) string {
	return n.ns + ":" + key
}

// Get 實作 Store
func (n *Namespaced) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return n.Store.Get(ctx, n.Key(key))
}

// Set 實作 Store
func (n *Namespaced) Set(ctx context.Context, key string, data []byte) error {
	return n.Store.Set(ctx, n.Key(key), data)
}
