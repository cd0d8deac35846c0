package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/beanboi7/chyp8/emu/audio"
	"github.com/beanboi7/chyp8/emu/config"
	"github.com/beanboi7/chyp8/emu/cpu"
	"github.com/beanboi7/chyp8/emu/rom"
	"github.com/beanboi7/chyp8/emu/runner"
	"github.com/beanboi7/chyp8/emu/screen"
	"github.com/faiface/pixel/pixelgl"
	"github.com/pkg/errors"
	"github.com/retroenv/retrogolib/log"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start `path/ROM`",
	Short: "load and start the Emulator",
	Args:  cobra.ExactArgs(1),
	RunE:  Start,
}

// chyp8 start 'path/to/ROM' -r 60 -c 400
func Start(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := rom.Read(args[0])
	if err != nil {
		return err
	}
	logger.Info("Loading rom", log.String("path", args[0]), log.Int("size", len(data)))

	if cfg.Display == config.DisplayTerm {
		term, err := screen.NewTerminal(cfg.FgColor, cfg.BgColor)
		if err != nil {
			return err
		}
		defer term.Close()
		return play(cfg, logger, data, term, term)
	}

	// glfw is only initialized for the window, RunE runs on the main thread
	var runErr error
	pixelgl.Run(func() {
		win, err := screen.NewWindow(cfg.Scale, cfg.FgColor, cfg.BgColor)
		if err != nil {
			runErr = err
			return
		}
		defer win.Destroy()
		runErr = play(cfg, logger, data, win, win)
	})
	return runErr
}

// play runs the rom against the given display until the user quits.
func play(cfg config.Config, logger *log.Logger, data []byte, display runner.Display, input runner.Input) error {
	emu := cpu.New(cfg.CPUOptions(logger)...)

	var speaker runner.Speaker = audio.Silent{}
	beeper, err := audio.New(cfg.BeepFile, cfg.BeepHz)
	if err != nil {
		logger.Warn("Audio disabled", log.Err(err))
	} else {
		defer beeper.Close()
		speaker = beeper
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	r := runner.New(emu, data, display, input, speaker, logger, runner.Options{
		ClockHz:   cfg.ClockHz,
		RefreshHz: cfg.RefreshHz,
		DumpOut:   os.Stderr,
	})
	err = r.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("Operation cancelled")
		return nil
	}
	if n := emu.UnknownOpcodes(); n > 0 {
		logger.Warn("Rom used unknown opcodes", log.Int("count", int(n)))
	}
	return err
}

func init() {
	rootCmd.AddCommand(startCmd)

	flags := startCmd.Flags()
	flags.IntP("refresh", "r", 60, "sets the refresh rate of the display and timers in Hz")
	flags.Float64P("clock", "c", 400, "instructions executed per second")
	flags.IntP("scale", "s", 8, "window pixels per Chip-8 pixel")
	flags.StringP("display", "d", config.DisplayWindow, "window or term")
	flags.String("beep-file", "", "mp3 played while the sound timer runs, a square wave if empty")
	flags.Float64("beep-hz", 440, "pitch of the generated beep")
	flags.String("fg", "white", "color of lit pixels")
	flags.String("bg", "black", "color of unlit pixels")

	bindFlags(flags.Lookup, map[string]string{
		"refresh_hz": "refresh",
		"clock_hz":   "clock",
		"scale":      "scale",
		"display":    "display",
		"beep_file":  "beep-file",
		"beep_hz":    "beep-hz",
		"fg_color":   "fg",
		"bg_color":   "bg",
	})
}
