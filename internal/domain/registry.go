package domain

import (
	"sort"
	"sync"
)

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithCapacityEnforcement rejects signups once an activity reaches MaxParticipants.
// Off by default: the catalog tracks capacity without checking it.
func WithCapacityEnforcement() RegistryOption {
	return func(r *Registry) {
		r.enforceCapacity = true
	}
}

// Registry owns the activity catalog and its rosters.
type Registry struct {
	mu              sync.RWMutex
	activities      map[string]*Activity
	enforceCapacity bool
}

// NewRegistry seeds a registry with the provided activities. Duplicate
// participant emails within a seed entry are collapsed.
func NewRegistry(seed []Activity, opts ...RegistryOption) *Registry {
	r := &Registry{activities: make(map[string]*Activity, len(seed))}
	for _, opt := range opts {
		opt(r)
	}
	for _, a := range seed {
		entry := a.clone()
		entry.Participants = entry.Participants[:0]
		for _, email := range a.Participants {
			if indexOf(entry.Participants, email) < 0 {
				entry.Participants = append(entry.Participants, email)
			}
		}
		r.activities[a.Name] = &entry
	}
	return r
}

// List returns a snapshot of every activity keyed by name.
func (r *Registry) List() map[string]Activity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Activity, len(r.activities))
	for name, a := range r.activities {
		out[name] = a.clone()
	}
	return out
}

// Names returns activity names in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.activities))
	for name := range r.activities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns a snapshot of a single activity.
func (r *Registry) Get(name string) (Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.activities[name]
	if !ok {
		return Activity{}, ErrActivityNotFound
	}
	return a.clone(), nil
}

// Signup adds email to the named activity and returns the updated snapshot.
func (r *Registry) Signup(name, email string) (Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.activities[name]
	if !ok {
		return Activity{}, ErrActivityNotFound
	}
	if a.HasParticipant(email) {
		return Activity{}, ErrAlreadyRegistered
	}
	if r.enforceCapacity && len(a.Participants) >= a.MaxParticipants {
		return Activity{}, ErrActivityFull
	}
	a.Participants = append(a.Participants, email)
	return a.clone(), nil
}

// Unregister removes email from the named activity and returns the updated snapshot.
func (r *Registry) Unregister(name, email string) (Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.activities[name]
	if !ok {
		return Activity{}, ErrActivityNotFound
	}
	idx := indexOf(a.Participants, email)
	if idx < 0 {
		return Activity{}, ErrNotRegistered
	}
	a.Participants = append(a.Participants[:idx], a.Participants[idx+1:]...)
	return a.clone(), nil
}
