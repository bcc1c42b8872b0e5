package persist

import (
	"encoding/json"
	"sync"

	"pkt.systems/hintx/schema"
)

// Memory is an in-process store with the same contract as Store. Values are
// kept JSON encoded so readers never share memory with writers.
type Memory struct {
	mu      sync.Mutex
	records map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string][]byte)}
}

// Get decodes the record stored under key into dst.
func (m *Memory) Get(key string, dst any) (bool, error) {
	m.mu.Lock()
	data, ok := m.records[key]
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores value under key.
func (m *Memory) Set(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.records[key] = data
	m.mu.Unlock()
	return nil
}

// LoadTabsByRecency reads the per-window recency lists.
func (m *Memory) LoadTabsByRecency() (map[schema.WindowID][]schema.TabID, error) {
	out := map[schema.WindowID][]schema.TabID{}
	if _, err := m.Get(KeyTabsByRecency, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveTabsByRecency writes the per-window recency lists.
func (m *Memory) SaveTabsByRecency(lists map[schema.WindowID][]schema.TabID) error {
	return m.Set(KeyTabsByRecency, lists)
}
