package catalog

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Service runs store mutations and announces each successful one to the
// notifiers. Notification never affects the result returned to the caller.
type Service struct {
	store     Store
	notifiers []Notifier
	log       *zap.Logger
	mutations *prometheus.CounterVec
}

func NewService(store Store, log *zap.Logger, reg prometheus.Registerer, notifiers ...Notifier) *Service {
	if log == nil {
		log = zap.NewNop()
	}

	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_mutations_total",
		Help: "Successful catalog mutations by event",
	}, []string{"event"})
	if reg != nil {
		reg.MustRegister(mutations)
	}

	return &Service{
		store:     store,
		notifiers: notifiers,
		log:       log,
		mutations: mutations,
	}
}

func (s *Service) List(ctx context.Context) ([]Product, error) {
	products, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("store list: %w", err)
	}
	return products, nil
}

func (s *Service) Create(ctx context.Context, f Fields) (Product, error) {
	p, err := s.store.Create(ctx, f)
	if err != nil {
		return Product{}, fmt.Errorf("store create: %w", err)
	}

	s.emit(Event{Name: EventCreated, Data: p})
	return p, nil
}

func (s *Service) Update(ctx context.Context, id int64, f Fields) (Product, error) {
	p, err := s.store.Update(ctx, id, f)
	if err != nil {
		return Product{}, fmt.Errorf("store update %d: %w", id, err)
	}

	s.emit(Event{Name: EventUpdated, Data: p})
	return p, nil
}

// Delete succeeds whether or not id existed, and announces it either way.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("store delete %d: %w", id, err)
	}

	s.emit(Event{Name: EventDeleted, Data: DeletedRef{ID: id}})
	return nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) emit(ev Event) {
	s.mutations.WithLabelValues(ev.Name).Inc()
	s.log.Debug("catalog event", zap.String("event", ev.Name))

	for _, n := range s.notifiers {
		n.Notify(ev)
	}
}
