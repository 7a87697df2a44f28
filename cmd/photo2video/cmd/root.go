// Package cmd implements the photo2video command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ivlev/photo2video/internal/config"
	"github.com/ivlev/photo2video/internal/logging"
	"github.com/ivlev/photo2video/internal/system"
)

// BuildVersion is set at link time with -ldflags "-X ...cmd.BuildVersion=...".
var BuildVersion = "dev"

var (
	cfgFile string
	cfg     *config.Config
	logger  zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:     "photo2video",
	Short:   "Turn photos, PDF pages or test slates into a video",
	Version: BuildVersion,
	Long: `photo2video writes a sequence of still images into an MP4 file, each
image held on screen for the same time, and optionally renders a second
file in which neighbouring images are joined by an animated transition.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("executing root command: %w", err)
	}
	return nil
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		return loadConfig()
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./photo2video.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "log as JSON instead of console text")
}

func initConfig() {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName("photo2video")
	}

	config.BindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig validates the configuration and builds the logger. Flags win
// over env and config only when set explicitly.
func loadConfig() error {
	flags := rootCmd.PersistentFlags()
	if flags.Changed("log-level") {
		lvl, _ := flags.GetString("log-level")
		viper.Set("logging.level", lvl)
	}
	if flags.Changed("log-json") {
		asJSON, _ := flags.GetBool("log-json")
		viper.Set("logging.pretty", !asJSON)
	}

	var err error
	cfg, err = config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger = logging.Setup(cfg.Logging.Level, cfg.Logging.Pretty)
	system.InitResourceLimits(logger)
	return nil
}
