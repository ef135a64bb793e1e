package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/basaltengine/basalt/internal/config"
	"github.com/basaltengine/basalt/internal/scene"
)

func TestScriptedPadReplay(t *testing.T) {
	pad := newScriptedPad([]config.PressConfig{
		{Frame: 5, Button: "A"},
		{Frame: 3, Button: "START"},
		{Frame: 5, Button: "START", Release: true},
	}, zap.NewNop())

	pad.Advance(1)
	assert.False(t, pad.Held(scene.ButtonStart))
	assert.False(t, pad.Pressed(scene.ButtonStart))

	pad.Advance(2)
	pad.Advance(3)
	assert.True(t, pad.Held(scene.ButtonStart))
	assert.True(t, pad.Pressed(scene.ButtonStart))

	pad.Advance(4)
	assert.True(t, pad.Held(scene.ButtonStart), "held persists after the press frame")
	assert.False(t, pad.Pressed(scene.ButtonStart), "pressed is a one-frame edge")

	pad.Advance(5)
	assert.False(t, pad.Held(scene.ButtonStart))
	assert.True(t, pad.Held(scene.ButtonA))
	assert.True(t, pad.Pressed(scene.ButtonA))
}

func TestScriptedPadSkipsUnknownButtons(t *testing.T) {
	pad := newScriptedPad([]config.PressConfig{
		{Frame: 1, Button: "TURBO"},
		{Frame: 1, Button: "B"},
	}, zap.NewNop())
	require.Len(t, pad.events, 1)

	pad.Advance(1)
	assert.True(t, pad.Pressed(scene.ButtonB))
}

func TestScriptedPadCatchesUpAfterSkippedFrames(t *testing.T) {
	pad := newScriptedPad([]config.PressConfig{
		{Frame: 2, Button: "LEFT"},
		{Frame: 4, Button: "LEFT", Release: true},
	}, zap.NewNop())

	// a coarse advance applies everything due, landing on the final state
	pad.Advance(10)
	assert.False(t, pad.Held(scene.ButtonLeft))
}
