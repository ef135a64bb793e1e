package scene

import "fmt"

// Button identifies one face or direction key of the target pad.
type Button uint8

const (
	ButtonUp Button = iota
	ButtonDown
	ButtonLeft
	ButtonRight
	ButtonA
	ButtonB
	ButtonStart
	ButtonSelect
	buttonCount
)

var buttonNames = [...]string{"UP", "DOWN", "LEFT", "RIGHT", "A", "B", "START", "SELECT"}

func (b Button) String() string {
	if b >= buttonCount {
		return fmt.Sprintf("Button(%d)", uint8(b))
	}
	return buttonNames[b]
}

// ParseButton maps a config name like "START" to its Button.
func ParseButton(name string) (Button, error) {
	for i, n := range buttonNames {
		if n == name {
			return Button(i), nil
		}
	}
	return 0, fmt.Errorf("unknown button %q", name)
}

// Input is the peripheral boundary. The core never polls hardware; whatever
// drives the frame loop injects an implementation and scripts read it
// through their context.
type Input interface {
	// Held reports whether the button is down this frame.
	Held(Button) bool
	// Pressed reports a transition from up to down since the last frame.
	Pressed(Button) bool
}

// NullInput reports no buttons, ever.
type NullInput struct{}

func (NullInput) Held(Button) bool    { return false }
func (NullInput) Pressed(Button) bool { return false }
