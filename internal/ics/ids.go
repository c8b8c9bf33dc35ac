package ics

import (
	"io"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces fallback identifiers for events without a UID.
type IDGenerator interface {
	NewID() string
}

// readerIDs derives UUIDs from a caller-supplied entropy source. A seeded
// math/rand source gives a reproducible sequence; nil uses crypto/rand.
type readerIDs struct {
	mu  sync.Mutex
	src io.Reader
}

// NewIDGenerator returns an IDGenerator reading entropy from src.
// If src is nil, or stops yielding bytes, crypto/rand is used instead.
func NewIDGenerator(src io.Reader) IDGenerator {
	return &readerIDs{src: src}
}

func (g *readerIDs) NewID() string {
	if g.src != nil {
		g.mu.Lock()
		id, err := uuid.NewRandomFromReader(g.src)
		g.mu.Unlock()
		if err == nil {
			return id.String()
		}
	}
	return uuid.NewString()
}
