package ui

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Action is a viewer command bound to a key.
type Action int

const (
	ActionNone Action = iota
	ActionPause
	ActionStep
	ActionRestart
	ActionFaster
	ActionSlower
	ActionPreset
	ActionMute
)

var keyBindings = []struct {
	key    ebiten.Key
	action Action
}{
	{ebiten.KeySpace, ActionPause},
	{ebiten.KeyN, ActionStep},
	{ebiten.KeyArrowRight, ActionStep},
	{ebiten.KeyR, ActionRestart},
	{ebiten.KeyArrowUp, ActionFaster},
	{ebiten.KeyArrowDown, ActionSlower},
	{ebiten.KeyP, ActionPreset},
	{ebiten.KeyM, ActionMute},
}

// InputHandler collects the actions triggered this frame.
type InputHandler struct {
	actions []Action
}

// NewInputHandler creates a new input handler.
func NewInputHandler() *InputHandler {
	return &InputHandler{}
}

// Update reads the keyboard. Call this once per frame.
func (ih *InputHandler) Update() {
	ih.actions = ih.actions[:0]
	for _, b := range keyBindings {
		if inpututil.IsKeyJustPressed(b.key) {
			ih.actions = append(ih.actions, b.action)
		}
	}
}

// Actions returns this frame's actions in binding order.
func (ih *InputHandler) Actions() []Action {
	return ih.actions
}
