package tool

import "map-viewer/internal/layer"

type selected struct {
	feature *layer.Feature
	layer   layer.Layer
}

// Selection is a set of features compared by identity. Iteration follows
// insertion order so output is stable, but callers should not rely on it.
type Selection struct {
	items []selected
	index map[*layer.Feature]struct{}
}

// NewSelection returns an empty set.
func NewSelection() *Selection {
	return &Selection{index: make(map[*layer.Feature]struct{})}
}

// Add merges fs, owned by l, into the set and returns how many were new.
func (s *Selection) Add(l layer.Layer, fs ...*layer.Feature) int {
	added := 0
	for _, f := range fs {
		if f == nil {
			continue
		}
		if _, ok := s.index[f]; ok {
			continue
		}
		s.index[f] = struct{}{}
		s.items = append(s.items, selected{feature: f, layer: l})
		added++
	}
	return added
}

// Contains reports whether f is selected.
func (s *Selection) Contains(f *layer.Feature) bool {
	_, ok := s.index[f]
	return ok
}

// Len returns the number of selected features.
func (s *Selection) Len() int { return len(s.items) }

// Features returns the selected features.
func (s *Selection) Features() []*layer.Feature {
	out := make([]*layer.Feature, len(s.items))
	for i, it := range s.items {
		out[i] = it.feature
	}
	return out
}

// Clear empties the set.
func (s *Selection) Clear() {
	s.items = nil
	s.index = make(map[*layer.Feature]struct{})
}

func (s *Selection) each(fn func(f *layer.Feature, l layer.Layer)) {
	for _, it := range s.items {
		fn(it.feature, it.layer)
	}
}
