package ui

import (
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/hailam/tetrisplay/internal/engine"
	"github.com/hailam/tetrisplay/internal/game"
)

// ToastType represents the type of toast notification.
type ToastType int

const (
	ToastInfo ToastType = iota
	ToastSpin
	ToastSuccess
	ToastError
)

// Toast represents a notification message.
type Toast struct {
	Message   string
	Type      ToastType
	StartTime time.Time
	Duration  time.Duration
}

// ToastManager manages toast notifications.
type ToastManager struct {
	toasts   []*Toast
	maxStack int
}

// NewToastManager creates a new toast manager.
func NewToastManager() *ToastManager {
	return &ToastManager{maxStack: 3}
}

// Show displays a new toast notification.
func (tm *ToastManager) Show(message string, toastType ToastType, duration time.Duration) {
	tm.toasts = append(tm.toasts, &Toast{
		Message:   message,
		Type:      toastType,
		StartTime: time.Now(),
		Duration:  duration,
	})
	if len(tm.toasts) > tm.maxStack {
		tm.toasts = tm.toasts[1:]
	}
}

// Update removes expired toasts.
func (tm *ToastManager) Update() {
	now := time.Now()
	active := tm.toasts[:0]
	for _, t := range tm.toasts {
		if now.Sub(t.StartTime) < t.Duration {
			active = append(active, t)
		}
	}
	tm.toasts = active
}

// Draw renders the active toasts centred over the well.
func (tm *ToastManager) Draw(screen *ebiten.Image, centerX float64, scale float64) {
	face := GetBoldFace()
	if face == nil {
		return
	}

	y := 60.0
	for _, t := range tm.toasts {
		elapsed := time.Since(t.StartTime).Seconds()
		duration := t.Duration.Seconds()

		alpha := 1.0
		fadeTime := 0.2
		if elapsed < fadeTime {
			alpha = elapsed / fadeTime
		} else if elapsed > duration-fadeTime {
			alpha = (duration - elapsed) / fadeTime
		}

		var bg color.NRGBA
		switch t.Type {
		case ToastSpin:
			bg = color.NRGBA{173, 77, 156, uint8(220 * alpha)}
		case ToastSuccess:
			bg = color.NRGBA{50, 150, 50, uint8(220 * alpha)}
		case ToastError:
			bg = color.NRGBA{180, 50, 50, uint8(220 * alpha)}
		default:
			bg = color.NRGBA{50, 100, 150, uint8(220 * alpha)}
		}
		fg := color.NRGBA{255, 255, 255, uint8(255 * alpha)}

		w, h := MeasureText(t.Message, face)
		padding := 10.0
		boxW, boxH := w+padding*2, h+padding*2
		x := centerX - boxW/2

		vector.DrawFilledRect(screen, float32(x*scale), float32(y*scale), float32(boxW*scale), float32(boxH*scale), bg, false)

		op := &text.DrawOptions{}
		op.GeoM.Translate(x+padding, y+padding)
		op.GeoM.Scale(scale, scale)
		op.ColorScale.ScaleWithColor(fg)
		text.Draw(screen, t.Message, face, op)

		y += boxH + 8
	}
}

// FeedbackManager turns decisions into toasts and sounds.
type FeedbackManager struct {
	toasts *ToastManager
	audio  *AudioManager
}

// NewFeedbackManager creates a feedback manager.
func NewFeedbackManager() *FeedbackManager {
	return &FeedbackManager{
		toasts: NewToastManager(),
		audio:  NewAudioManager(),
	}
}

// Update expires old toasts.
func (fm *FeedbackManager) Update() {
	fm.toasts.Update()
}

// Draw renders the toasts.
func (fm *FeedbackManager) Draw(screen *ebiten.Image, centerX, scale float64) {
	fm.toasts.Draw(screen, centerX, scale)
}

// Audio returns the audio manager.
func (fm *FeedbackManager) Audio() *AudioManager {
	return fm.audio
}

// OnDecision announces notable placements.
func (fm *FeedbackManager) OnDecision(d engine.Decision, perfectClear bool) {
	const show = 1500 * time.Millisecond

	label := d.PlacementKind
	if d.B2B {
		label = "B2B " + label
	}
	switch {
	case perfectClear:
		fm.toasts.Show("PERFECT CLEAR", ToastSuccess, 2*show)
		fm.audio.Play(SoundPerfectClear)
	case d.Tspin != "None" && d.LinesCleared > 0:
		fm.toasts.Show(label, ToastSpin, show)
		fm.audio.Play(SoundTspin)
	case d.LinesCleared == 4:
		fm.toasts.Show(label, ToastSuccess, show)
		fm.audio.Play(SoundTetris)
	case d.LinesCleared > 0:
		fm.audio.Play(SoundClear)
	default:
		fm.audio.Play(SoundLock)
	}
	if d.Combo != nil && *d.Combo >= 2 {
		fm.toasts.Show(fmt.Sprintf("%d combo", *d.Combo), ToastInfo, show)
	}
}

// OnTopOut announces the end of the game.
func (fm *FeedbackManager) OnTopOut(pieces int) {
	fm.toasts.Show(fmt.Sprintf("Topped out after %d pieces", pieces), ToastError, 3*time.Second)
	fm.audio.Play(SoundTopOut)
}

// OnFinished announces a completed sprint or blitz.
func (fm *FeedbackManager) OnFinished(mode game.Mode, pieces, lines int) {
	fm.toasts.Show(fmt.Sprintf("%s done: %d lines in %d pieces", mode, lines, pieces), ToastSuccess, 3*time.Second)
	fm.audio.Play(SoundPerfectClear)
}
