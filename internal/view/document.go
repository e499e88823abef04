package view

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// LiveViewID is the mount point of the on-screen result view.
const LiveViewID = "result"

// Document is the set of views mounted on one page: the live result view
// plus any off-screen clones made during capture.
type Document struct {
	id string

	mu    sync.Mutex
	views map[string]*View
	seq   int
}

// NewDocument creates an empty document. An empty id gets a random one.
func NewDocument(id string) *Document {
	if id == "" {
		id = uuid.NewString()
	}
	return &Document{id: id, views: make(map[string]*View)}
}

func (d *Document) ID() string { return d.id }

// Mount places v at id, replacing whatever was there.
func (d *Document) Mount(id string, v *View) {
	d.mu.Lock()
	d.views[id] = v
	d.mu.Unlock()
}

// MountOffscreen mounts v under a generated id and returns it.
func (d *Document) MountOffscreen(v *View) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	id := fmt.Sprintf("offscreen-%d", d.seq)
	d.views[id] = v
	return id
}

// Unmount removes the view at id and reports whether one was there.
func (d *Document) Unmount(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.views[id]
	delete(d.views, id)
	return ok
}

func (d *Document) Lookup(id string) (*View, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.views[id]
	return v, ok
}

// Len returns the number of mounted views.
func (d *Document) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.views)
}
