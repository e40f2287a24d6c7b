package batch

import (
	"sync"

	"hydrogen/pos-receipts/internal/render"
)

// arena holds the documents of one batch keyed by record index. It replaces a
// process-wide element registry: nothing outlives the batch that created it.
type arena struct {
	mu   sync.Mutex
	docs map[int]*render.Document
}

func newArena(size int) *arena {
	return &arena{docs: make(map[int]*render.Document, size)}
}

func (a *arena) put(index int, doc *render.Document) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.docs[index] = doc
}

func (a *arena) len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.docs)
}

// release detaches every document and empties the arena.
func (a *arena) release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for index, doc := range a.docs {
		doc.Detach()
		delete(a.docs, index)
	}
}
