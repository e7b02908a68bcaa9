// Package cache memoizes lint results per buffer digest so an unchanged
// document does not re-invoke the external tool. It is used only by hosts
// (the LSP server); the runner itself stays cache-free.
package cache

import (
	"crypto/sha256"

	lru "github.com/hashicorp/golang-lru/v2"

	"glint/internal/diag"
)

// Key identifies one (tool, args, content) combination.
type Key [sha256.Size]byte

// NewKey digests everything that can change a pass result.
func NewKey(tool string, args []string, content []byte) Key {
	h := sha256.New()
	h.Write([]byte(tool))
	h.Write([]byte{0})
	for _, arg := range args {
		h.Write([]byte(arg))
		h.Write([]byte{0})
	}
	h.Write(content)
	var key Key
	h.Sum(key[:0])
	return key
}

// Entry is one memoized pass result.
type Entry struct {
	Diagnostics []diag.Diagnostic
	Dropped     int
}

// Memory is a bounded in-process result cache with an optional disk layer
// behind it. Safe for concurrent use.
type Memory struct {
	lru  *lru.Cache[Key, Entry]
	disk *Disk
}

// NewMemory creates a cache holding up to size entries. disk may be nil.
func NewMemory(size int, disk *Disk) (*Memory, error) {
	if size <= 0 {
		size = 128
	}
	inner, err := lru.New[Key, Entry](size)
	if err != nil {
		return nil, err
	}
	return &Memory{lru: inner, disk: disk}, nil
}

// Get returns the memoized entry for key, consulting the disk layer on a
// memory miss.
func (m *Memory) Get(key Key) (Entry, bool) {
	if m == nil {
		return Entry{}, false
	}
	if entry, ok := m.lru.Get(key); ok {
		return entry, true
	}
	if m.disk != nil {
		var entry Entry
		if ok, err := m.disk.Get(key, &entry); err == nil && ok {
			m.lru.Add(key, entry)
			return entry, true
		}
	}
	return Entry{}, false
}

// Put stores an entry in memory and, when configured, on disk.
func (m *Memory) Put(key Key, entry Entry) {
	if m == nil {
		return
	}
	m.lru.Add(key, entry)
	if m.disk != nil {
		// дисковый слой — best effort, ошибка не роняет проход
		_ = m.disk.Put(key, &entry)
	}
}
