// pkg/event/event.go
package event

import (
	"context"
	"fmt"
	"sync"

	"github.com/opd-ai/go-orbiter/pkg/logging"
)

// Type represents the type of event
type Type string

// Simulation event types. All of them are edge-triggered: published on
// a state transition, never re-published while the state persists.
const (
	RocketLaunched  Type = "rocket_launched"
	RocketCrashed   Type = "rocket_crashed"
	OrbitAchieved   Type = "orbit_achieved"
	FuelDepleted    Type = "fuel_depleted"
	RocketRefueled  Type = "rocket_refueled"
	RocketRecovered Type = "rocket_recovered"
	SimulationReset Type = "simulation_reset"
)

// Event is the base interface for all events
type Event interface {
	GetType() Type
	GetSource() interface{}
}

// BaseEvent provides common functionality for all events
type BaseEvent struct {
	EventType Type
	Source    interface{}
}

// GetType returns the event type
func (e *BaseEvent) GetType() Type {
	return e.EventType
}

// GetSource returns the event source
func (e *BaseEvent) GetSource() interface{} {
	return e.Source
}

// Handler is a function that handles events
type Handler func(Event)

// Subscription identifies a registered handler. Cancel removes the
// handler from the bus; canceling twice is harmless.
type Subscription struct {
	ID     uint64
	Cancel func()
}

// registration pairs a handler with the ID used to remove it. Function
// values are not comparable, so removal goes through the ID.
type registration struct {
	id      uint64
	handler Handler
}

// Bus manages event subscriptions and dispatching. Each simulation owns
// its own bus; there is no package-level instance.
type Bus struct {
	handlers map[Type][]registration
	mu       sync.RWMutex
	nextID   uint64
	logger   *logging.Logger
}

// NewEventBus creates a new event bus
func NewEventBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]registration),
		nextID:   1,
		logger:   logging.NewLogger(),
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType Type, handler Handler) *Subscription {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[eventType] = append(b.handlers[eventType], registration{id: id, handler: handler})
	b.mu.Unlock()

	return &Subscription{
		ID: id,
		Cancel: func() {
			b.unsubscribe(eventType, id)
		},
	}
}

func (b *Bus) unsubscribe(eventType Type, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	registrations, ok := b.handlers[eventType]
	if !ok {
		return
	}

	for i, reg := range registrations {
		if reg.id == id {
			b.handlers[eventType] = append(registrations[:i], registrations[i+1:]...)
			break
		}
	}
}

// Publish sends an event to all subscribed handlers. Handlers run on
// the publishing goroutine, outside the bus lock, so they may subscribe
// or cancel without deadlocking.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	registrations, ok := b.handlers[event.GetType()]
	var handlers []Handler
	if ok {
		handlers = make([]Handler, len(registrations))
		for i, reg := range registrations {
			handlers[i] = reg.handler
		}
	}
	b.mu.RUnlock()

	for _, handler := range handlers {
		b.invoke(handler, event)
	}
}

// invoke runs one handler with panic isolation. Handlers fire inside
// the simulation's locked sections, so a panicking subscriber must not
// unwind the publisher mid-tick.
func (b *Bus) invoke(handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Warn(context.Background(), "event handler panicked",
				"event_type", string(event.GetType()),
				"panic", fmt.Sprintf("%v", r),
			)
		}
	}()

	handler(event)
}

// Specific event implementations

// RocketEvent carries plain rocket lifecycle notifications such as
// launch and crash recovery
type RocketEvent struct {
	BaseEvent
	RocketID uint64
}

// NewRocketEvent creates a new rocket lifecycle event
func NewRocketEvent(eventType Type, source interface{}, rocketID uint64) *RocketEvent {
	return &RocketEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		RocketID: rocketID,
	}
}

// CrashEvent contains information about a fatal surface impact
type CrashEvent struct {
	BaseEvent
	RocketID    uint64
	BodyName    string
	ImpactSpeed float64
}

// NewCrashEvent creates a new crash event
func NewCrashEvent(source interface{}, rocketID uint64, bodyName string, impactSpeed float64) *CrashEvent {
	return &CrashEvent{
		BaseEvent: BaseEvent{
			EventType: RocketCrashed,
			Source:    source,
		},
		RocketID:    rocketID,
		BodyName:    bodyName,
		ImpactSpeed: impactSpeed,
	}
}

// OrbitEvent contains information about a newly achieved orbit
type OrbitEvent struct {
	BaseEvent
	RocketID uint64
	BodyName string
	Period   float64
	Altitude float64
}

// NewOrbitEvent creates a new orbit-achieved event
func NewOrbitEvent(source interface{}, rocketID uint64, bodyName string, period, altitude float64) *OrbitEvent {
	return &OrbitEvent{
		BaseEvent: BaseEvent{
			EventType: OrbitAchieved,
			Source:    source,
		},
		RocketID: rocketID,
		BodyName: bodyName,
		Period:   period,
		Altitude: altitude,
	}
}

// FuelEvent contains information about fuel state transitions
type FuelEvent struct {
	BaseEvent
	RocketID uint64
	Fuel     float64
}

// NewFuelEvent creates a new fuel event
func NewFuelEvent(eventType Type, source interface{}, rocketID uint64, fuel float64) *FuelEvent {
	return &FuelEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		RocketID: rocketID,
		Fuel:     fuel,
	}
}
