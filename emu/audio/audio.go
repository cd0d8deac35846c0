// Package audio plays the buzzer tone while the sound timer runs.
package audio

import (
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/pkg/errors"
)

const (
	sampleRate = beep.SampleRate(44100)
	volume     = 0.2
)

// Beeper plays either a generated square wave or a looped mp3 through the speaker.
type Beeper struct {
	ctrl   *beep.Ctrl
	rewind beep.StreamSeeker
	closer func() error
}

// New initializes the speaker. An empty beepFile selects a square wave at hz.
func New(beepFile string, hz float64) (*Beeper, error) {
	b := &Beeper{}
	format := beep.Format{SampleRate: sampleRate, NumChannels: 2, Precision: 2}

	var streamer beep.Streamer
	if beepFile == "" {
		streamer = SquareWave(sampleRate, hz, volume)
	} else {
		f, err := os.Open(beepFile)
		if err != nil {
			return nil, errors.Wrap(err, "opening beep sound")
		}
		decoded, decodedFormat, err := mp3.Decode(f)
		if err != nil {
			_ = f.Close()
			return nil, errors.Wrapf(err, "decoding %s", beepFile)
		}
		format = decodedFormat
		b.rewind = decoded
		b.closer = decoded.Close
		streamer = beep.Loop(-1, decoded)
	}

	if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
		if b.closer != nil {
			_ = b.closer()
		}
		return nil, errors.Wrap(err, "initializing speaker")
	}

	b.ctrl = &beep.Ctrl{Streamer: streamer, Paused: true}
	speaker.Play(b.ctrl)
	return b, nil
}

func (b *Beeper) Start() {
	speaker.Lock()
	b.ctrl.Paused = false
	speaker.Unlock()
}

func (b *Beeper) Stop() {
	speaker.Lock()
	b.ctrl.Paused = true
	if b.rewind != nil {
		_ = b.rewind.Seek(0)
	}
	speaker.Unlock()
}

func (b *Beeper) Close() error {
	speaker.Clear()
	if b.closer != nil {
		return b.closer()
	}
	return nil
}

// SquareWave returns an endless stereo square wave.
func SquareWave(sr beep.SampleRate, hz, amplitude float64) beep.Streamer {
	period := float64(sr) / hz
	pos := 0.0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			v := amplitude
			if pos >= period/2 {
				v = -amplitude
			}
			samples[i][0], samples[i][1] = v, v
			pos++
			if pos >= period {
				pos -= period
			}
		}
		return len(samples), true
	})
}

// Silent is used when no audio device is available.
type Silent struct{}

func (Silent) Start() {}
func (Silent) Stop() {}
