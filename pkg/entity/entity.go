// pkg/entity/entity.go
package entity

import (
	"github.com/opd-ai/go-orbiter/pkg/physics"
)

// ID is a unique identifier for a simulation object
type ID uint64

// BaseEntity contains the spatial state shared by simulation objects
type BaseEntity struct {
	ID       ID
	Position physics.Vector2D
	Collider physics.Circle
	Active   bool
}

// GetID returns the entity's unique identifier
func (e *BaseEntity) GetID() ID {
	return e.ID
}

// GetPosition returns the entity's position
func (e *BaseEntity) GetPosition() physics.Vector2D {
	return e.Position
}

// GetCollider returns the entity's collision shape
func (e *BaseEntity) GetCollider() physics.Circle {
	return physics.Circle{
		Center: e.Position,
		Radius: e.Collider.Radius,
	}
}

// MoveTo places the entity and keeps its collider centered on it
func (e *BaseEntity) MoveTo(position physics.Vector2D) {
	e.Position = position
	e.Collider.Center = position
}
