// Package domain defines the activity registry and the signup workflow around it.
package domain

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"example.com/signup/internal/events"
	"example.com/signup/internal/observability"
)

var (
	// ErrActivityNotFound is returned when the activity name is not in the catalog.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrAlreadyRegistered is returned when the email is already on the roster.
	ErrAlreadyRegistered = errors.New("student is already signed up")
	// ErrNotRegistered is returned when removing an email that is not on the roster.
	ErrNotRegistered = errors.New("student is not signed up for this activity")
	// ErrActivityFull is returned when capacity enforcement is enabled and the roster is full.
	ErrActivityFull = errors.New("activity is full")
)

// EventPublisher receives roster events after a successful mutation.
// Publish is called while roster writes are serialised, so it must not block.
type EventPublisher interface {
	Publish(ctx context.Context, event events.RosterChanged)
}

// NoopPublisher discards events. Used when Kafka is not configured.
type NoopPublisher struct{}

// Publish implements EventPublisher.
func (NoopPublisher) Publish(context.Context, events.RosterChanged) {}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithPublisher sets the roster event sink.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithClock overrides the clock used for event timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

// Service orchestrates signup workflows against a Registry.
type Service struct {
	registry  *Registry
	publisher EventPublisher
	clock     clockwork.Clock

	// writeMu keeps event order identical to roster mutation order.
	writeMu sync.Mutex
}

// NewService constructs a Service.
func NewService(registry *Registry, opts ...Option) *Service {
	s := &Service{
		registry:  registry,
		publisher: NoopPublisher{},
		clock:     clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	for name, a := range registry.List() {
		observability.RecordRosterSize(name, len(a.Participants))
	}
	return s
}

// ListActivities returns every activity keyed by name.
func (s *Service) ListActivities(ctx context.Context) map[string]Activity {
	return s.registry.List()
}

// GetActivity fetches a single activity by name.
func (s *Service) GetActivity(ctx context.Context, name string) (Activity, error) {
	return s.registry.Get(name)
}

// Signup registers email for the named activity.
func (s *Service) Signup(ctx context.Context, name, email string) (Activity, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	activity, err := s.registry.Signup(name, email)
	if err != nil {
		observability.RecordRejected("signup", reason(err))
		return Activity{}, err
	}

	observability.RecordSignup(name)
	observability.RecordRosterSize(name, len(activity.Participants))
	s.publish(ctx, events.TypeParticipantSignedUp, activity, email)
	return activity, nil
}

// Unregister removes email from the named activity.
func (s *Service) Unregister(ctx context.Context, name, email string) (Activity, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	activity, err := s.registry.Unregister(name, email)
	if err != nil {
		observability.RecordRejected("unregister", reason(err))
		return Activity{}, err
	}

	observability.RecordUnregister(name)
	observability.RecordRosterSize(name, len(activity.Participants))
	s.publish(ctx, events.TypeParticipantUnregistered, activity, email)
	return activity, nil
}

func (s *Service) publish(ctx context.Context, eventType string, activity Activity, email string) {
	s.publisher.Publish(ctx, events.RosterChanged{
		EventID:          uuid.NewString(),
		Type:             eventType,
		Activity:         activity.Name,
		Email:            email,
		ParticipantCount: len(activity.Participants),
		OccurredAt:       s.clock.Now().UTC(),
	})
}

func reason(err error) string {
	switch {
	case errors.Is(err, ErrActivityNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyRegistered):
		return "already_registered"
	case errors.Is(err, ErrNotRegistered):
		return "not_registered"
	case errors.Is(err, ErrActivityFull):
		return "activity_full"
	default:
		return "unknown"
	}
}
