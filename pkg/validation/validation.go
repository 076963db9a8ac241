// pkg/validation/validation.go

// Package validation provides input validation and sanitization for
// network messages. The simulation engine clamps whatever reaches it;
// this package rejects malformed input at the wire so garbage never
// gets that far.
package validation

import (
	"encoding/json"
	"fmt"
	"html"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Message size and content limits for the wire protocol
const (
	MaxMessageSize    = 64 * 1024 // 64KB max message
	MaxClientNameLen  = 32
	MaxMessagesPerMin = 100

	// MaxRefuelAmount bounds a single refuel request. The tank clamps
	// anyway; this just rejects absurd wire values early.
	MaxRefuelAmount = 10000.0

	// MaxRotationPerMessage bounds a single rotation command to one
	// full turn in either direction.
	MaxRotationPerMessage = 2 * math.Pi
)

// validClientNameChars allows alphanumeric, spaces, hyphens,
// underscores, and basic punctuation for client names.
var validClientNameChars = regexp.MustCompile(`^[a-zA-Z0-9\s\-_.<>()]+$`)

// MessageValidator provides validation for raw client messages
type MessageValidator struct {
	rateLimiter *RateLimiter
}

// NewMessageValidator creates a new message validator with rate limiting
func NewMessageValidator() *MessageValidator {
	return &MessageValidator{
		rateLimiter: NewRateLimiter(MaxMessagesPerMin, time.Minute),
	}
}

// Close releases resources used by the message validator
func (v *MessageValidator) Close() {
	if v.rateLimiter != nil {
		v.rateLimiter.Close()
	}
}

// ValidateMessage validates a raw message against size and format
// constraints and the per-client rate limit.
func (v *MessageValidator) ValidateMessage(data []byte, clientID string) error {
	if len(data) > MaxMessageSize {
		return fmt.Errorf("message too large: %d bytes (max %d)", len(data), MaxMessageSize)
	}

	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON format")
	}

	if !v.rateLimiter.Allow(clientID) {
		return fmt.Errorf("rate limit exceeded: max %d messages per minute", MaxMessagesPerMin)
	}

	return nil
}

// ValidateClientName validates and sanitizes a client's display name.
func ValidateClientName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("client name cannot be empty")
	}

	if len(name) > MaxClientNameLen {
		return "", fmt.Errorf("client name too long: %d characters (max %d)", len(name), MaxClientNameLen)
	}

	if !utf8.ValidString(name) {
		return "", fmt.Errorf("client name contains invalid UTF-8 characters")
	}

	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("client name cannot be only whitespace")
	}

	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("client name contains control characters")
		}
	}

	if !validClientNameChars.MatchString(trimmed) {
		return "", fmt.Errorf("client name contains invalid characters (only alphanumeric, spaces, hyphens, underscores, and basic punctuation allowed)")
	}

	// Escape HTML so names are safe to echo into web UIs
	sanitized := html.EscapeString(trimmed)

	return sanitized, nil
}

// ValidateThrustInput validates a normalized thrust command.
func ValidateThrustInput(magnitude float64) error {
	if math.IsNaN(magnitude) || math.IsInf(magnitude, 0) {
		return fmt.Errorf("thrust must be a finite number")
	}
	if magnitude < 0 || magnitude > 1 {
		return fmt.Errorf("thrust out of range: %g (must be in [0, 1])", magnitude)
	}
	return nil
}

// ValidateRotationInput validates a thrust-direction rotation command
// in radians.
func ValidateRotationInput(angle float64) error {
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return fmt.Errorf("rotation must be a finite number")
	}
	if angle < -MaxRotationPerMessage || angle > MaxRotationPerMessage {
		return fmt.Errorf("rotation out of range: %g (must be within one full turn)", angle)
	}
	return nil
}

// ValidateRefuelAmount validates a refuel request.
func ValidateRefuelAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fmt.Errorf("refuel amount must be a finite number")
	}
	if amount < 0 {
		return fmt.Errorf("refuel amount cannot be negative: %g", amount)
	}
	if amount > MaxRefuelAmount {
		return fmt.Errorf("refuel amount too large: %g (max %g)", amount, MaxRefuelAmount)
	}
	return nil
}

// ValidateSpeedMultiplier validates a time-scale request against the
// range the simulation accepts.
func ValidateSpeedMultiplier(multiplier float64) error {
	if math.IsNaN(multiplier) || math.IsInf(multiplier, 0) {
		return fmt.Errorf("speed multiplier must be a finite number")
	}
	if multiplier < 0.1 || multiplier > 100 {
		return fmt.Errorf("speed multiplier out of range: %g (must be in [0.1, 100])", multiplier)
	}
	return nil
}
