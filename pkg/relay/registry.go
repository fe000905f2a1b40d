package relay

import "sync"

// ConnHandle identifies one live connection. Handles are compared for
// equality only and never interpreted; the zero value matches no
// connection.
type ConnHandle string

// Registry maps client identifiers to the connection that currently owns
// them. A later registration for the same identifier overwrites the
// earlier one. All operations are short critical sections; callers must
// never hold results under the assumption that ownership is stable.
type Registry struct {
	mu     sync.Mutex
	owners map[string]ConnHandle
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		owners: make(map[string]ConnHandle),
	}
}

// Register associates id with handle, overwriting any previous owner.
func (r *Registry) Register(id string, handle ConnHandle) {
	r.mu.Lock()
	r.owners[id] = handle
	r.mu.Unlock()
}

// Lookup returns the current owner of id.
func (r *Registry) Lookup(id string) (ConnHandle, bool) {
	r.mu.Lock()
	handle, ok := r.owners[id]
	r.mu.Unlock()
	return handle, ok
}

// RemoveAll deletes every identifier owned by handle. A connection may
// have registered under several identifiers over its lifetime; closing it
// clears all of them.
func (r *Registry) RemoveAll(handle ConnHandle) {
	r.mu.Lock()
	for id, owner := range r.owners {
		if owner == handle {
			delete(r.owners, id)
		}
	}
	r.mu.Unlock()
}

// Len returns the number of registered identifiers
func (r *Registry) Len() int {
	r.mu.Lock()
	n := len(r.owners)
	r.mu.Unlock()
	return n
}
