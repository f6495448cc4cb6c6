package sim

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/Faultbox/ringwalk/internal/locomotion"
	"github.com/Faultbox/ringwalk/pkg/math"
)

// Command is one tick of intent for a character.
type Command struct {
	Input locomotion.Input
	Fire  bool
}

// InputProvider supplies commands for the given tick. Characters missing from the
// returned map idle.
type InputProvider interface {
	Commands(tick uint64, chars []*Character) map[uuid.UUID]Command
}

// InputFunc adapts a function to InputProvider.
type InputFunc func(tick uint64, chars []*Character) map[uuid.UUID]Command

// Commands calls f.
func (f InputFunc) Commands(tick uint64, chars []*Character) map[uuid.UUID]Command {
	return f(tick, chars)
}

// Cue holds a command over a time window [From, To) in seconds for a named
// character. An empty Character applies to everyone.
type Cue struct {
	Character string
	From      float64
	To        float64
	Move      float64
	Jump      bool
	Fire      bool
}

// Script is a timeline of cues. When cues overlap, the one starting last sets the
// move axis (listing order breaks ties); jump and fire are held if any active cue
// holds them. Fire repeats every tick of its window.
type Script struct {
	cues []Cue
	dt   float64
}

// NewScript creates a timeline sampled at the given fixed timestep.
func NewScript(cues []Cue, dt float64) (*Script, error) {
	if !math.IsFinite(dt) || dt <= 0 {
		return nil, fmt.Errorf("script: invalid dt %v", dt)
	}
	for i, c := range cues {
		if !math.IsFinite(c.From) || !math.IsFinite(c.To) || c.To < c.From {
			return nil, fmt.Errorf("script cue %d: window [%v, %v) is invalid", i, c.From, c.To)
		}
	}
	out := make([]Cue, len(cues))
	copy(out, cues)
	sort.SliceStable(out, func(i, j int) bool { return out[i].From < out[j].From })
	return &Script{cues: out, dt: dt}, nil
}

// Len returns the number of cues.
func (s *Script) Len() int { return len(s.cues) }

// End returns the time the last cue finishes.
func (s *Script) End() float64 {
	end := 0.0
	for _, c := range s.cues {
		end = max(end, c.To)
	}
	return end
}

// Commands implements InputProvider.
func (s *Script) Commands(tick uint64, chars []*Character) map[uuid.UUID]Command {
	t := float64(tick) * s.dt
	out := make(map[uuid.UUID]Command, len(chars))
	for _, c := range s.cues {
		if c.From > t {
			break
		}
		if t >= c.To {
			continue
		}
		for _, ch := range chars {
			if c.Character != "" && c.Character != ch.Name {
				continue
			}
			cmd := out[ch.ID]
			cmd.Input.MoveAxis = c.Move
			cmd.Input.Jump = cmd.Input.Jump || c.Jump
			cmd.Fire = cmd.Fire || c.Fire
			out[ch.ID] = cmd
		}
	}
	return out
}
