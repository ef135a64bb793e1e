package main

import (
	"sort"

	"go.uber.org/zap"

	"github.com/basaltengine/basalt/internal/config"
	"github.com/basaltengine/basalt/internal/scene"
)

type padEvent struct {
	frame   int
	button  scene.Button
	release bool
}

// scriptedPad replays the configured press events. A button reads as
// pressed on exactly its event frame and held from then on, until an event
// with release set lets go. Advance is called once per frame by the runner.
type scriptedPad struct {
	events  []padEvent
	next    int
	held    map[scene.Button]bool
	pressed map[scene.Button]bool
}

func newScriptedPad(presses []config.PressConfig, log *zap.Logger) *scriptedPad {
	events := make([]padEvent, 0, len(presses))
	for _, p := range presses {
		b, err := scene.ParseButton(p.Button)
		if err != nil {
			log.Warn("ignoring input event", zap.Int("frame", p.Frame), zap.Error(err))
			continue
		}
		frame := p.Frame
		if frame < 0 {
			frame = 0
		}
		events = append(events, padEvent{frame: frame, button: b, release: p.Release})
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].frame < events[j].frame })
	return &scriptedPad{
		events:  events,
		held:    make(map[scene.Button]bool),
		pressed: make(map[scene.Button]bool),
	}
}

// Advance applies every event due at or before the given frame.
func (p *scriptedPad) Advance(frame uint64) {
	for b := range p.pressed {
		delete(p.pressed, b)
	}
	for p.next < len(p.events) && uint64(p.events[p.next].frame) <= frame {
		ev := p.events[p.next]
		p.next++
		if ev.release {
			p.held[ev.button] = false
		} else {
			p.held[ev.button] = true
			p.pressed[ev.button] = true
		}
	}
}

func (p *scriptedPad) Held(b scene.Button) bool    { return p.held[b] }
func (p *scriptedPad) Pressed(b scene.Button) bool { return p.pressed[b] }
