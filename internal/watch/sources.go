package watch

import (
	"errors"
	"path/filepath"
	"sync"
)

// Sources maps source files to the values loaded from them and keeps the
// watcher's file set in step: a path is watched exactly while something is
// tracked for it. A nil watcher only keeps the map.
type Sources[T comparable] struct {
	w *Watcher

	mu     sync.Mutex
	byPath map[string]T
}

// NewSources returns an empty set bound to w.
func NewSources[T comparable](w *Watcher) *Sources[T] {
	return &Sources[T]{w: w, byPath: make(map[string]T)}
}

// Track records v as loaded from path and starts watching path.
func (s *Sources[T]) Track(path string, v T) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.byPath[path] = v
	s.mu.Unlock()
	if s.w == nil {
		return nil
	}
	return s.w.Add(path)
}

// Lookup returns the value tracked for path.
func (s *Sources[T]) Lookup(path string) (T, bool) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.byPath[path]
	return v, ok
}

// Forget drops every path tracked for v and stops watching them. It returns
// the paths that were dropped.
func (s *Sources[T]) Forget(v T) ([]string, error) {
	s.mu.Lock()
	var paths []string
	for path, got := range s.byPath {
		if got == v {
			paths = append(paths, path)
			delete(s.byPath, path)
		}
	}
	s.mu.Unlock()
	if s.w == nil {
		return paths, nil
	}
	var errs []error
	for _, path := range paths {
		errs = append(errs, s.w.Remove(path))
	}
	return paths, errors.Join(errs...)
}
