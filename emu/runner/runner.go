// Package runner drives an EMU in real time: it paces instructions and timer
// ticks, feeds it key state and hands every frame to a display.
package runner

import (
	"context"
	"io"
	"time"

	"github.com/beanboi7/chyp8/emu/cpu"
	"github.com/pkg/errors"
	"github.com/retroenv/retrogolib/log"
)

// Events are the host function keys seen since the last poll.
type Events struct {
	Quit          bool
	TogglePause   bool
	Reset         bool
	DumpMemory    bool
	DumpRegisters bool
}

// Display presents a full 64x32 frame, row-major, one byte per pixel.
type Display interface {
	Draw(frame *[cpu.Width * cpu.Height]uint8)
}

// Input reports which of the 16 keys are held plus any function keys.
type Input interface {
	Poll() ([cpu.NumKeys]bool, Events)
}

// Speaker plays a tone between Start and Stop.
type Speaker interface {
	Start()
	Stop()
}

type Options struct {
	ClockHz   float64 // instructions per second
	RefreshHz int     // frames and timer ticks per second
	DumpOut   io.Writer
}

type Runner struct {
	emu     *cpu.EMU
	rom     []byte
	display Display
	input   Input
	speaker Speaker
	logger  *log.Logger
	opts    Options

	paused  bool
	playing bool
	owed    float64 // instructions owed, carried between frames
}

func New(emu *cpu.EMU, rom []byte, display Display, input Input, speaker Speaker, logger *log.Logger, opts Options) *Runner {
	return &Runner{
		emu:     emu,
		rom:     rom,
		display: display,
		input:   input,
		speaker: speaker,
		logger:  logger,
		opts:    opts,
	}
}

// Boot resets the machine and loads the rom.
func (r *Runner) Boot() error {
	r.emu.Reset()
	if err := r.emu.Load(r.rom); err != nil {
		return errors.Wrap(err, "loading rom")
	}
	r.owed = 0
	r.logger.Debug("Rom loaded", log.Int("size", len(r.rom)))
	return nil
}

func (r *Runner) Paused() bool { return r.paused }

// Frame advances the machine by one host frame that took elapsed wall time.
// It returns true once the user asked to quit.
func (r *Runner) Frame(elapsed time.Duration) (bool, error) {
	keys, events := r.input.Poll()
	r.emu.SetKeys(keys)

	if quit, err := r.handleEvents(events); quit || err != nil {
		return quit, err
	}

	if !r.paused {
		r.emu.Tick()

		r.owed += elapsed.Seconds() * r.opts.ClockHz
		for r.owed > 1 {
			cycles, err := r.emu.Step()
			if err != nil {
				return false, errors.Wrapf(err, "executing 0x%04X at 0x%03X", r.emu.Opcode(), r.emu.PC())
			}
			r.owed -= float64(cycles)
		}

		r.updateSound()
	}

	frame := r.emu.Framebuffer()
	r.display.Draw(&frame)
	return false, nil
}

func (r *Runner) handleEvents(events Events) (bool, error) {
	if events.Quit {
		r.stopSound()
		return true, nil
	}
	if events.DumpMemory && r.opts.DumpOut != nil {
		if err := r.emu.DumpMemory(r.opts.DumpOut); err != nil {
			return false, errors.Wrap(err, "dumping memory")
		}
	}
	if events.DumpRegisters && r.opts.DumpOut != nil {
		if err := r.emu.DumpRegisters(r.opts.DumpOut); err != nil {
			return false, errors.Wrap(err, "dumping registers")
		}
	}
	if events.Reset {
		r.logger.Info("Resetting")
		if err := r.Boot(); err != nil {
			return false, err
		}
	}
	if events.TogglePause {
		r.paused = !r.paused
		if r.paused {
			r.stopSound()
		}
		r.logger.Info("Pause toggled", log.String("state", pauseState(r.paused)))
	}
	return false, nil
}

func pauseState(paused bool) string {
	if paused {
		return "paused"
	}
	return "running"
}

// updateSound keeps the tone playing exactly while the sound timer is above zero.
func (r *Runner) updateSound() {
	if r.emu.SoundTimer() > 0 {
		if !r.playing {
			r.speaker.Start()
			r.playing = true
		}
		return
	}
	r.stopSound()
}

func (r *Runner) stopSound() {
	if r.playing {
		r.speaker.Stop()
		r.playing = false
	}
}

// Run boots the machine and calls Frame at RefreshHz until the user quits,
// a step fails or ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.Boot(); err != nil {
		return err
	}

	ticker := time.NewTicker(time.Second / time.Duration(r.opts.RefreshHz))
	defer ticker.Stop()
	defer r.stopSound()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			quit, err := r.Frame(now.Sub(last))
			if err != nil || quit {
				return err
			}
			last = now
		}
	}
}
