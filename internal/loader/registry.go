package loader

// Registry is the set of canonical paths already loaded during one run.
//
// It grows monotonically and is never shared between runs; callers create
// a fresh Registry per run. Registry is not safe for concurrent use: the
// duplicate-suppression decision for a directive depends on every load
// made before it in program order, so resolution is serialized anyway.
type Registry struct {
	seen  map[string]struct{}
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{seen: make(map[string]struct{})}
}

// Contains reports whether path has been registered.
func (r *Registry) Contains(path string) bool {
	_, ok := r.seen[path]
	return ok
}

// Add registers path. Adding an existing path is a no-op.
func (r *Registry) Add(path string) {
	if r.Contains(path) {
		return
	}
	r.seen[path] = struct{}{}
	r.order = append(r.order, path)
}

// Len returns the number of distinct registered paths.
func (r *Registry) Len() int {
	return len(r.order)
}

// Paths returns registered paths in first-load order.
func (r *Registry) Paths() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
