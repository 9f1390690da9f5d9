package store

import (
	"context"
	"sync"
)

// Memory 記憶體儲存，程序結束即消失
type Memory struct {
	mu    sync.RWMutex
	data  map[string][]byte
	stats Stats
}

// Stats 讀寫統計
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Writes int64 `json:"writes"`
}

// NewMemory 創建記憶體儲存
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Get 實作 Store
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		m.stats.Misses++
		return nil, false, nil
	}
	m.stats.Hits++
	return append([]byte(nil), v...), true, nil
}

// Set 實作 Store
func (m *Memory) Set(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), data...)
	m.stats.Writes++
	return nil
}

// Len 目前保存的鍵數
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Stats 讀寫統計快照
func (m *Memory) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}
