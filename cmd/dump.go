package cmd

import (
	"github.com/beanboi7/chyp8/emu/cpu"
	"github.com/beanboi7/chyp8/emu/rom"
	"github.com/pkg/errors"
	"github.com/retroenv/retrogolib/log"
	"github.com/spf13/cobra"
)

var dumpOpts struct {
	steps     int
	tickEvery int
	memory    bool
	registers bool
}

var dumpCmd = &cobra.Command{
	Use:   "dump `path/ROM`",
	Short: "run a ROM headless for a number of steps and print the machine state",
	Args:  cobra.ExactArgs(1),
	RunE:  Dump,
}

// chyp8 dump 'path/to/ROM' -n 100 --registers
func Dump(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := rom.Read(args[0])
	if err != nil {
		return err
	}

	emu := cpu.New(cfg.CPUOptions(logger)...)
	if err := emu.Load(data); err != nil {
		return err
	}

	for i := 0; i < dumpOpts.steps; i++ {
		if _, err := emu.Step(); err != nil {
			return errors.Wrapf(err, "step %d", i)
		}
		if dumpOpts.tickEvery > 0 && (i+1)%dumpOpts.tickEvery == 0 {
			emu.Tick()
		}
	}
	logger.Debug("Run finished",
		log.Int("steps", dumpOpts.steps),
		log.Int("unknown_opcodes", int(emu.UnknownOpcodes())))

	out := cmd.OutOrStdout()
	if dumpOpts.registers || !dumpOpts.memory {
		if err := emu.DumpRegisters(out); err != nil {
			return err
		}
	}
	if dumpOpts.memory {
		if err := emu.DumpMemory(out); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(dumpCmd)

	flags := dumpCmd.Flags()
	flags.IntVarP(&dumpOpts.steps, "steps", "n", 0, "instructions to execute before dumping")
	flags.IntVar(&dumpOpts.tickEvery, "tick-every", 0, "decrement the timers after every N instructions, 0 never")
	flags.BoolVar(&dumpOpts.memory, "memory", false, "dump all 4K of memory")
	flags.BoolVar(&dumpOpts.registers, "registers", false, "dump registers, timers and stack (default when --memory is not set)")
}
