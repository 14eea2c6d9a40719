package realtime

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// registry is the Subscription Registry: it tracks, per subscription key,
// the set of interested callbacks. An id-keyed subscription may carry
// update callbacks, error callbacks, or both; the key stays registered
// while either set is non-empty.
type registry struct {
	mu           sync.Mutex
	byWidget     map[int]map[uuid.UUID]UpdateFunc
	byType       map[string]map[uuid.UUID]UpdateFunc
	errsByWidget map[int]map[uuid.UUID]ErrorFunc
}

func newRegistry() *registry {
	return &registry{
		byWidget:     make(map[int]map[uuid.UUID]UpdateFunc),
		byType:       make(map[string]map[uuid.UUID]UpdateFunc),
		errsByWidget: make(map[int]map[uuid.UUID]ErrorFunc),
	}
}

// addWidget registers an update callback under an id key and returns its handle.
func (r *registry) addWidget(id int, fn UpdateFunc) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.byWidget[id]
	if !ok {
		set = make(map[uuid.UUID]UpdateFunc)
		r.byWidget[id] = set
	}
	handle := uuid.New()
	set[handle] = fn
	return handle
}

// removeWidget removes one update callback. It reports whether the id key
// became entirely unregistered (no update and no error callbacks left).
func (r *registry) removeWidget(id int, handle uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if set, ok := r.byWidget[id]; ok {
		delete(set, handle)
		if len(set) == 0 {
			delete(r.byWidget, id)
		}
	}
	return r.byWidget[id] == nil && r.errsByWidget[id] == nil
}

// addType registers an update callback under a type key and returns its handle.
func (r *registry) addType(name string, fn UpdateFunc) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.byType[name]
	if !ok {
		set = make(map[uuid.UUID]UpdateFunc)
		r.byType[name] = set
	}
	handle := uuid.New()
	set[handle] = fn
	return handle
}

// removeType removes one update callback. It reports whether the type key
// became unregistered.
func (r *registry) removeType(name string, handle uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.byType[name]
	if !ok {
		return false
	}
	delete(set, handle)
	if len(set) == 0 {
		delete(r.byType, name)
		return true
	}
	return false
}

// addError registers an error callback under an id key and returns its handle.
func (r *registry) addError(id int, fn ErrorFunc) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.errsByWidget[id]
	if !ok {
		set = make(map[uuid.UUID]ErrorFunc)
		r.errsByWidget[id] = set
	}
	handle := uuid.New()
	set[handle] = fn
	return handle
}

// removeError removes one error callback. It reports whether the id key
// became entirely unregistered.
func (r *registry) removeError(id int, handle uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if set, ok := r.errsByWidget[id]; ok {
		delete(set, handle)
		if len(set) == 0 {
			delete(r.errsByWidget, id)
		}
	}
	return r.byWidget[id] == nil && r.errsByWidget[id] == nil
}

// updateCallbacks snapshots every callback a widget_update fans out to:
// the id-keyed set and the type-keyed set, independently.
func (r *registry) updateCallbacks(id int, widgetType string) []UpdateFunc {
	r.mu.Lock()
	defer r.mu.Unlock()

	var fns []UpdateFunc
	for _, fn := range r.byWidget[id] {
		fns = append(fns, fn)
	}
	for _, fn := range r.byType[widgetType] {
		fns = append(fns, fn)
	}
	return fns
}

// errorCallbacks snapshots the id-keyed error callbacks.
func (r *registry) errorCallbacks(id int) []ErrorFunc {
	r.mu.Lock()
	defer r.mu.Unlock()

	var fns []ErrorFunc
	for _, fn := range r.errsByWidget[id] {
		fns = append(fns, fn)
	}
	return fns
}

// keys enumerates every active subscription key, for replay.
func (r *registry) keys() []SubscriptionKey {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]SubscriptionKey, 0, len(r.byWidget)+len(r.errsByWidget)+len(r.byType))
	for _, id := range r.widgetIDsLocked() {
		keys = append(keys, WidgetKey(id))
	}
	for _, name := range r.typeNamesLocked() {
		keys = append(keys, TypeKey(name))
	}
	return keys
}

// widgetIDs returns the sorted id keys (update or error callbacks).
func (r *registry) widgetIDs() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.widgetIDsLocked()
}

// typeNames returns the sorted type keys.
func (r *registry) typeNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.typeNamesLocked()
}

// size returns the number of active subscription keys.
func (r *registry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.widgetIDsLocked()) + len(r.byType)
}

func (r *registry) widgetIDsLocked() []int {
	seen := make(map[int]struct{}, len(r.byWidget)+len(r.errsByWidget))
	for id := range r.byWidget {
		seen[id] = struct{}{}
	}
	for id := range r.errsByWidget {
		seen[id] = struct{}{}
	}
	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (r *registry) typeNamesLocked() []string {
	names := make([]string, 0, len(r.byType))
	for name := range r.byType {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
