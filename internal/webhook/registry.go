// Package webhook keeps the subscriber endpoints and delivers catalog events
// to them in the background.
package webhook

import (
	"sync"

	"github.com/google/uuid"
)

type Subscriber struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Registry is append-only: subscribers are never updated or removed.
type Registry struct {
	mu   sync.RWMutex
	subs []Subscriber
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register accepts any string as the target; it is not parsed here.
func (r *Registry) Register(url string) Subscriber {
	sub := Subscriber{ID: uuid.NewString(), URL: url}

	r.mu.Lock()
	r.subs = append(r.subs, sub)
	r.mu.Unlock()

	return sub
}

func (r *Registry) List() []Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Subscriber(nil), r.subs...)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}
