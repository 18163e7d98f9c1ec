package server

import (
	"fmt"
	"sync"

	"github.com/ironsheep/segment-tools-mcp/internal/segment"
)

// storedSegmentation pairs a label map with the source image it was derived
// from, so later tool calls (region props, rendering) can reload the image
// without the client repeating the path.
type storedSegmentation struct {
	labels *segment.LabelMap
	path   string
}

// storedField is a scalar field (distance transform, gradient) kept for
// follow-up peak finding or heatmap rendering.
type storedField struct {
	field  []float64
	width  int
	height int
	path   string
}

// segmentStore holds segmentation results across tool calls. Each run stores
// its result under a fresh id, and downstream tools reference results by id,
// so a client can re-run one stage with new parameters and compare outcomes.
//
// The store is safe for concurrent use. Results live for the process
// lifetime only.
type segmentStore struct {
	mu     sync.RWMutex
	nextID int
	segs   map[string]storedSegmentation
	fields map[string]storedField
}

func newSegmentStore() *segmentStore {
	return &segmentStore{
		segs:   make(map[string]storedSegmentation),
		fields: make(map[string]storedField),
	}
}

// putSegmentation stores a label map and returns its fresh id ("seg-N").
func (st *segmentStore) putSegmentation(path string, m *segment.LabelMap) string {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.nextID++
	id := fmt.Sprintf("seg-%d", st.nextID)
	st.segs[id] = storedSegmentation{labels: m, path: path}
	return id
}

// getSegmentation looks up a stored segmentation by id.
func (st *segmentStore) getSegmentation(id string) (storedSegmentation, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	seg, ok := st.segs[id]
	if !ok {
		return storedSegmentation{}, fmt.Errorf("unknown segmentation id: %s", id)
	}
	return seg, nil
}

// putField stores a scalar field and returns its fresh id ("field-N").
func (st *segmentStore) putField(path string, field []float64, width, height int) string {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.nextID++
	id := fmt.Sprintf("field-%d", st.nextID)
	st.fields[id] = storedField{field: field, width: width, height: height, path: path}
	return id
}

// getField looks up a stored scalar field by id.
func (st *segmentStore) getField(id string) (storedField, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	f, ok := st.fields[id]
	if !ok {
		return storedField{}, fmt.Errorf("unknown field id: %s", id)
	}
	return f, nil
}
