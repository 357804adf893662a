package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Serializer converts domain events to and from their persisted form. Type
// discovery maps the stable event tag to a concrete event shape; registration
// happens once at startup from each domain package.
type Serializer struct {
	mu        sync.RWMutex
	factories map[string]func() DomainEvent
}

func NewSerializer() *Serializer {
	return &Serializer{factories: make(map[string]func() DomainEvent)}
}

// Register adds a factory for one event type. Registering the same tag twice
// is a programmer error and panics at startup.
func (s *Serializer) Register(factory func() DomainEvent) {
	tag := factory().EventType()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.factories[tag]; exists {
		panic(fmt.Sprintf("store: event type %q registered twice", tag))
	}
	s.factories[tag] = factory
}

// RegisterAll registers every factory in order.
func (s *Serializer) RegisterAll(factories ...func() DomainEvent) {
	for _, f := range factories {
		s.Register(f)
	}
}

// Serialize encodes an event, returning its tag and payload bytes.
func (s *Serializer) Serialize(event DomainEvent) (string, []byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", nil, fmt.Errorf("serialize %s: %w", event.EventType(), err)
	}
	return event.EventType(), data, nil
}

// Deserialize decodes payload bytes into the concrete event registered for
// the tag. Unknown tags fail with UnknownEventTypeError.
func (s *Serializer) Deserialize(tag string, data []byte) (DomainEvent, error) {
	s.mu.RLock()
	factory, ok := s.factories[tag]
	s.mu.RUnlock()
	if !ok {
		return nil, &UnknownEventTypeError{Tag: tag}
	}
	event := factory()
	if err := json.Unmarshal(data, event); err != nil {
		return nil, fmt.Errorf("deserialize %s: %w", tag, err)
	}
	return event, nil
}

// RegisteredTypes returns the sorted set of known event tags.
func (s *Serializer) RegisteredTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tags := make([]string, 0, len(s.factories))
	for tag := range s.factories {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
