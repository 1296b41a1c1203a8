package shortcut

import (
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/keycast/internal/key"
)

// CollisionKind classifies a reported binding collision.
type CollisionKind int

const (
	// CollisionDuplicate means two active bindings share the same sequence.
	// Lookup resolves it by latest registration wins.
	CollisionDuplicate CollisionKind = iota

	// CollisionPrefix means one active binding's sequence is a proper
	// prefix of another's. Under an eager match policy the longer binding
	// is unreachable.
	CollisionPrefix
)

// String returns the collision kind name.
func (k CollisionKind) String() string {
	switch k {
	case CollisionDuplicate:
		return "duplicate"
	case CollisionPrefix:
		return "prefix"
	default:
		return "unknown"
	}
}

// CollisionFunc is notified of sequence collisions at registration time.
// Collisions are warnings, never errors; registration proceeds regardless.
type CollisionFunc func(kind CollisionKind, existing, incoming Binding)

// Registry manages shortcut bindings and provides sequence lookup.
type Registry struct {
	mu sync.RWMutex

	// bindings holds all registered bindings by id.
	bindings map[string]*Binding

	// tree indexes active and inactive bindings by sequence.
	tree *prefixTree

	// order stamps registrations so duplicate sequences resolve to the
	// latest one.
	order uint64
	seq   map[string]uint64

	onCollision CollisionFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		bindings: make(map[string]*Binding),
		tree:     newPrefixTree(),
		seq:      make(map[string]uint64),
	}
}

// OnCollision sets the collision warning callback.
func (r *Registry) OnCollision(fn CollisionFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onCollision = fn
}

// Register inserts the binding, replacing any existing binding with the
// same id. An empty id gets a generated one; the id used is returned.
// Registration activates the binding; use Toggle to deactivate it.
//
// A binding whose Keys spec is empty or unparsable is rejected with an
// InvalidBindingError and the registry is left unchanged.
func (r *Registry) Register(b Binding) (string, error) {
	seq, err := key.ParseSequence(b.Keys)
	if err != nil {
		return "", &InvalidBindingError{ID: b.ID, Keys: b.Keys, Err: err}
	}
	if seq.IsEmpty() {
		return "", &InvalidBindingError{ID: b.ID, Keys: b.Keys, Err: ErrEmptySequence}
	}

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.Active = true
	b.sequence = seq

	r.mu.Lock()

	// Collect collision warnings before mutating so the callback sees the
	// pre-registration state.
	var collisions []struct {
		kind     CollisionKind
		existing Binding
	}
	for id, other := range r.bindings {
		if id == b.ID || !other.Active {
			continue
		}
		switch {
		case other.sequence.Equals(seq):
			collisions = append(collisions, struct {
				kind     CollisionKind
				existing Binding
			}{CollisionDuplicate, *other})
		case other.sequence.HasPrefix(seq), seq.HasPrefix(other.sequence):
			collisions = append(collisions, struct {
				kind     CollisionKind
				existing Binding
			}{CollisionPrefix, *other})
		}
	}

	// Replace silently when the id already exists.
	if old, ok := r.bindings[b.ID]; ok {
		r.tree.remove(old.sequence, b.ID)
	}

	r.order++
	r.seq[b.ID] = r.order
	r.bindings[b.ID] = &b
	r.tree.insert(seq, b.ID)

	fn := r.onCollision
	r.mu.Unlock()

	if fn != nil {
		for _, c := range collisions {
			fn(c.kind, c.existing, b)
		}
	}

	return b.ID, nil
}

// Unregister removes a binding. No-op when the id is absent.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bindings[id]
	if !ok {
		return
	}
	r.tree.remove(b.sequence, id)
	delete(r.bindings, id)
	delete(r.seq, id)
}

// Toggle flips a binding's active flag without removing it.
// Returns false when the id is absent.
func (r *Registry) Toggle(id string, active bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bindings[id]
	if !ok {
		return false
	}
	b.Active = active
	return true
}

// Get returns a copy of the binding with the given id.
func (r *Registry) Get(id string) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bindings[id]
	if !ok {
		return Binding{}, false
	}
	return *b, true
}

// List returns a snapshot of all bindings, active and inactive, grouped
// for display via GroupByCategory.
func (r *Registry) List() []Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Binding, 0, len(r.bindings))
	for _, b := range r.bindings {
		result = append(result, *b)
	}
	return result
}

// ByCategory returns all bindings grouped by category for display.
func (r *Registry) ByCategory() []CategoryGroup {
	return GroupByCategory(r.List())
}

// Len returns the number of registered bindings.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bindings)
}

// Lookup finds the active binding exactly matching seq. When several
// active bindings share the sequence the latest registration wins.
// The returned binding is a snapshot: unregistering it afterwards does
// not invalidate the copy.
func (r *Registry) Lookup(seq *key.Sequence) (Binding, bool) {
	if seq == nil || seq.IsEmpty() {
		return Binding{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.tree.lookup(seq)
	var best *Binding
	var bestOrder uint64
	for _, id := range ids {
		b, ok := r.bindings[id]
		if !ok || !b.Active {
			continue
		}
		if best == nil || r.seq[id] > bestOrder {
			best = b
			bestOrder = r.seq[id]
		}
	}
	if best == nil {
		return Binding{}, false
	}
	return *best, true
}

// HasPrefix reports whether some strictly longer active binding starts
// with seq, i.e. whether more input could still produce a match.
func (r *Registry) HasPrefix(seq *key.Sequence) bool {
	if seq == nil {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.tree.hasActiveBelow(seq, func(id string) bool {
		b, ok := r.bindings[id]
		return ok && b.Active
	})
}

// MaxSequenceLen returns the length of the longest active binding's
// sequence, bounding the dispatcher's pending buffer.
func (r *Registry) MaxSequenceLen() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	maxLen := 0
	for _, b := range r.bindings {
		if b.Active && b.sequence.Len() > maxLen {
			maxLen = b.sequence.Len()
		}
	}
	return maxLen
}

// prefixTree indexes binding ids by key sequence for exact and prefix
// lookups.
type prefixTree struct {
	root *prefixNode
}

type prefixNode struct {
	children map[string]*prefixNode
	ids      []string
}

func newPrefixTree() *prefixTree {
	return &prefixTree{
		root: &prefixNode{children: make(map[string]*prefixNode)},
	}
}

// insert adds a binding id at the node for seq.
func (t *prefixTree) insert(seq *key.Sequence, id string) {
	node := t.root
	for _, event := range seq.Events {
		token := event.String()
		child, ok := node.children[token]
		if !ok {
			child = &prefixNode{children: make(map[string]*prefixNode)}
			node.children[token] = child
		}
		node = child
	}
	node.ids = append(node.ids, id)
}

// remove deletes a binding id and prunes empty nodes from leaf to root.
func (t *prefixTree) remove(seq *key.Sequence, id string) {
	if seq == nil || seq.IsEmpty() {
		return
	}

	path := make([]*prefixNode, 0, seq.Len()+1)
	path = append(path, t.root)

	node := t.root
	for _, event := range seq.Events {
		child, ok := node.children[event.String()]
		if !ok {
			return
		}
		path = append(path, child)
		node = child
	}

	filtered := node.ids[:0]
	for _, existing := range node.ids {
		if existing != id {
			filtered = append(filtered, existing)
		}
	}
	node.ids = filtered

	for i := len(path) - 1; i > 0; i-- {
		current := path[i]
		if len(current.ids) > 0 || len(current.children) > 0 {
			break
		}
		parent := path[i-1]
		for token, child := range parent.children {
			if child == current {
				delete(parent.children, token)
				break
			}
		}
	}
}

// lookup returns the ids stored exactly at seq.
func (t *prefixTree) lookup(seq *key.Sequence) []string {
	node := t.root
	for _, event := range seq.Events {
		child, ok := node.children[event.String()]
		if !ok {
			return nil
		}
		node = child
	}
	return node.ids
}

// hasActiveBelow reports whether any node strictly below seq holds an id
// accepted by the filter.
func (t *prefixTree) hasActiveBelow(seq *key.Sequence, accept func(id string) bool) bool {
	node := t.root
	for _, event := range seq.Events {
		child, ok := node.children[event.String()]
		if !ok {
			return false
		}
		node = child
	}

	for _, child := range node.children {
		if child.subtreeHas(accept) {
			return true
		}
	}
	return false
}

// subtreeHas reports whether this node or any descendant holds an
// accepted id.
func (n *prefixNode) subtreeHas(accept func(id string) bool) bool {
	for _, id := range n.ids {
		if accept(id) {
			return true
		}
	}
	for _, child := range n.children {
		if child.subtreeHas(accept) {
			return true
		}
	}
	return false
}
