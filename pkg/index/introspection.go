package index

import (
	"time"

	"github.com/aretw0/introspection"
)

// IndexState exposes the write history of the index.
type IndexState struct {
	Path      string    `json:"path"`
	Records   int       `json:"records"`
	Writes    uint64    `json:"writes"`
	LastWrite time.Time `json:"last_write,omitempty"`
}

// State implements introspection.Introspectable.
func (x *FileIndex) State() any {
	x.mu.Lock()
	defer x.mu.Unlock()
	return IndexState{
		Path:      x.path,
		Records:   x.lastCount,
		Writes:    x.writeCount,
		LastWrite: x.lastWrite,
	}
}

// ComponentType implements introspection.Component.
func (x *FileIndex) ComponentType() string {
	return "metadata-index"
}

var _ introspection.Introspectable = (*FileIndex)(nil)
var _ introspection.Component = (*FileIndex)(nil)
