package locomotion

import (
	"fmt"

	"github.com/Faultbox/ringwalk/pkg/math"
)

// EventKind identifies a state machine transition.
type EventKind int

const (
	EventGroundedChanged EventKind = iota
	EventLanded
	EventLeftGround
	EventJumped
	EventAirReversed
	EventFacingChanged
	EventPlatformSnapped
)

var eventNames = map[EventKind]string{
	EventGroundedChanged: "grounded_changed",
	EventLanded:          "landed",
	EventLeftGround:      "left_ground",
	EventJumped:          "jumped",
	EventAirReversed:     "air_reversed",
	EventFacingChanged:   "facing_changed",
	EventPlatformSnapped: "platform_snapped",
}

// String returns the snake_case event name.
func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is emitted by Step for every transition that happened during the tick.
type Event struct {
	Kind     EventKind
	Position math.Vec2
	Velocity math.Vec2

	Grounded    bool    // New grounded flag (GroundedChanged)
	FacingRight bool    // New facing (FacingChanged)
	AirSpeed    float64 // Saved air tangent speed after the transition
}

// Observer reacts to transitions, e.g. to flip a sprite or play a landing sound.
// Observers run on the stepping goroutine after integration has finished.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// OnEvent calls f(e).
func (f ObserverFunc) OnEvent(e Event) { f(e) }
