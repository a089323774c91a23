// Package cache keeps weather icons in process memory.
package cache

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/golang/groupcache/singleflight"
)

// ErrEmpty is returned by Fill when the fill function produced no bytes.
var ErrEmpty = errors.New("cache: empty value")

// IconStore maps icon codes to image bytes for the life of the process.
// Entries are write-once and never evicted. It is safe for concurrent use.
type IconStore struct {
	entries sync.Map // string -> []byte
	size    atomic.Int64
	group   singleflight.Group
}

// NewIconStore build a new, empty icon storage
func NewIconStore() *IconStore {
	return &IconStore{}
}

// Get returns the bytes stored for code, if any.
func (s *IconStore) Get(code string) ([]byte, bool) {
	v, ok := s.entries.Load(code)
	if !ok {
		return nil, false
	}
	return v.([]byte), true
}

// Put stores data under code unless an entry already exists or data is empty.
// It returns the bytes that ended up stored, and false if nothing was stored.
func (s *IconStore) Put(code string, data []byte) ([]byte, bool) {
	if len(data) == 0 {
		return nil, false
	}
	v, loaded := s.entries.LoadOrStore(code, data)
	if !loaded {
		s.size.Add(1)
	}
	return v.([]byte), true
}

// Fill returns the entry for code, calling fill to produce it on a miss.
// Concurrent misses for the same code share a single fill call. Errors
// and empty results are returned to every waiter and never stored. A
// panicking fill is reported as an error so the code can be filled again.
func (s *IconStore) Fill(code string, fill func() ([]byte, error)) ([]byte, error) {
	v, err := s.group.Do(code, func() (v interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				v, err = nil, fmt.Errorf("cache: fill for %q panicked: %v", code, r)
			}
		}()
		if data, ok := s.Get(code); ok {
			return data, nil
		}
		data, err := fill()
		if err != nil {
			return nil, err
		}
		stored, ok := s.Put(code, data)
		if !ok {
			return nil, ErrEmpty
		}
		return stored, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Len reports the number of cached icons.
func (s *IconStore) Len() int {
	return int(s.size.Load())
}
