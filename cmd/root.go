package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/beanboi7/chyp8/emu/config"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/retroenv/retrogolib/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:          "chyp8 [command]",
	Short:        "Chip-8 emulator using Go",
	Long:         "A Chip-8 emulator written from scratch that mimics the functionalities of a Chip-8, an interpretted language originally written for the COSMIC-VIP/ Telmac 8 bit systems.",
	SilenceUsage: true,
}

func Execute() {
	if err := ExecuteArgs(os.Args[1:], os.Stdout); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// ExecuteArgs runs the command line args, writing command output to out.
func ExecuteArgs(args []string, out io.Writer) error {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)
	config.SetDefaults(viper.GetViper())

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.chyp8.yaml)")
	flags.Bool("debug", false, "enable debug logging")
	flags.Bool("quiet", false, "only log errors")
	flags.String("draw-mode", "wrap", "sprite pixels past the screen edge: wrap, clip or reject")
	flags.Bool("shift-quirk", false, "8XY6/8XYE shift VY into VX instead of shifting VX")
	flags.Bool("strict", false, "stop on unknown opcodes instead of stalling on them")
	flags.Int64("seed", 0, "random seed for CXNN, 0 seeds from the clock")

	bindFlags(flags.Lookup, map[string]string{
		"debug":       "debug",
		"quiet":       "quiet",
		"draw_mode":   "draw-mode",
		"shift_quirk": "shift-quirk",
		"strict":      "strict",
		"seed":        "seed",
	})
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".chyp8" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".chyp8")
	}

	viper.SetEnvPrefix("chyp8")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig resolves flags, env and config file into the settings and a logger.
func loadConfig() (config.Config, *log.Logger, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return cfg, nil, err
	}
	return cfg, config.CreateLogger(cfg.Debug, cfg.Quiet), nil
}
