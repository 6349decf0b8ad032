package reportstorage

import "sync"

// MemoryReportStorage keeps reports in memory, keyed by file name.
type MemoryReportStorage struct {
	mu      sync.Mutex
	reports map[string][]byte
}

func NewMemoryReportStorage() *MemoryReportStorage {
	return &MemoryReportStorage{reports: make(map[string][]byte)}
}

func (m *MemoryReportStorage) Store(name string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[name] = append([]byte(nil), data...)
	return name, nil
}

func (m *MemoryReportStorage) Get(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.reports[name]
	return data, ok
}

func (m *MemoryReportStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reports)
}
