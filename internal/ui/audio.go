package ui

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

// SoundType represents different sound effects.
type SoundType int

const (
	SoundLock SoundType = iota
	SoundClear
	SoundTetris
	SoundTspin
	SoundPerfectClear
	SoundTopOut
)

const sampleRate = 44100

// AudioManager handles sound effect playback.
type AudioManager struct {
	context *audio.Context
	sounds  map[SoundType][]byte
	enabled bool
	volume  float64
}

// NewAudioManager creates a new audio manager.
func NewAudioManager() *AudioManager {
	am := &AudioManager{
		context: audio.NewContext(sampleRate),
		sounds:  make(map[SoundType][]byte),
		enabled: true,
		volume:  0.4,
	}
	am.generateSounds()
	return am
}

func (am *AudioManager) generateSounds() {
	am.sounds[SoundLock] = generateClick(440, 0.06, 0.25)
	am.sounds[SoundClear] = generateTone(660, 0.12, 0.35)
	am.sounds[SoundTetris] = generateChord([]float64{523.25, 659.25, 783.99}, 0.35, 0.45)
	am.sounds[SoundTspin] = generateChord([]float64{392.00, 493.88, 587.33}, 0.3, 0.45)
	am.sounds[SoundPerfectClear] = generateChord([]float64{523.25, 659.25, 783.99, 1046.50}, 0.6, 0.5)
	am.sounds[SoundTopOut] = generateTone(110, 0.5, 0.4)
}

// putSample writes one stereo 16-bit frame.
func putSample(data []byte, i int, sample float64) {
	val := int16(max(-1, min(1, sample)) * 32767)
	data[i*4] = byte(val)
	data[i*4+1] = byte(val >> 8)
	data[i*4+2] = byte(val)
	data[i*4+3] = byte(val >> 8)
}

// generateClick creates a short percussive click.
func generateClick(freq, duration, amplitude float64) []byte {
	samples := int(sampleRate * duration)
	data := make([]byte, samples*4)
	for i := 0; i < samples; i++ {
		t := float64(i) / sampleRate
		envelope := math.Exp(-t * 40)
		putSample(data, i, math.Sin(2*math.Pi*freq*t)*envelope*amplitude)
	}
	return data
}

// generateTone creates a tone with attack and decay.
func generateTone(freq, duration, amplitude float64) []byte {
	samples := int(sampleRate * duration)
	data := make([]byte, samples*4)
	for i := 0; i < samples; i++ {
		t := float64(i) / sampleRate
		progress := t / duration
		envelope := 1.0 - (progress-0.1)/0.9
		if progress < 0.1 {
			envelope = progress / 0.1
		}
		putSample(data, i, math.Sin(2*math.Pi*freq*t)*envelope*amplitude)
	}
	return data
}

// generateChord mixes freqs with a fade in and out.
func generateChord(freqs []float64, duration, amplitude float64) []byte {
	samples := int(sampleRate * duration)
	data := make([]byte, samples*4)
	for i := 0; i < samples; i++ {
		t := float64(i) / sampleRate
		progress := t / duration
		envelope := 1.0
		if progress < 0.1 {
			envelope = progress / 0.1
		} else if progress > 0.7 {
			envelope = (1.0 - progress) / 0.3
		}
		sample := 0.0
		for _, f := range freqs {
			sample += math.Sin(2 * math.Pi * f * t)
		}
		putSample(data, i, sample/float64(len(freqs))*envelope*amplitude)
	}
	return data
}

// Play plays a sound effect.
func (am *AudioManager) Play(sound SoundType) {
	if !am.enabled {
		return
	}
	data, ok := am.sounds[sound]
	if !ok {
		return
	}
	player := am.context.NewPlayerFromBytes(data)
	player.SetVolume(am.volume)
	player.Play()
}

// SetEnabled enables or disables audio.
func (am *AudioManager) SetEnabled(enabled bool) {
	am.enabled = enabled
}

// IsEnabled returns whether audio is enabled.
func (am *AudioManager) IsEnabled() bool {
	return am.enabled
}
