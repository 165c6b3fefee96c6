// Package main wires abacus's cobra commands, the same root/run split
// buildoor's cmd package uses: a persistent root command binds flags into
// one viper instance, and subcommands (serve) do the work.
package main

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rawblock/abacus/internal/config"
)

var envReplacer = strings.NewReplacer("-", "_")

var (
	cfgFile string
	cfg     *config.Config
	v       *viper.Viper
)

var rootCmd = &cobra.Command{
	Use:   "abacus",
	Short: "Municipal election vote-counting service",
	Long: `Abacus runs dual-entry data reconciliation, validation, seat
apportionment, and candidate nomination for municipal election counts.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loadConfigFile()

		loaded, err := config.LoadFromFlags(v)
		if err != nil {
			return err
		}
		cfg = loaded

		initLogger()
		return nil
	},
}

func init() {
	v = viper.New()

	defaults := config.DefaultConfig()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().String("database-url", defaults.DatabaseURL, "PostgreSQL connection string")
	rootCmd.PersistentFlags().Int("api-port", defaults.APIPort, "HTTP API port")
	rootCmd.PersistentFlags().String("api-token", "", "Bearer token required on protected endpoints")
	rootCmd.PersistentFlags().String("log-level", defaults.LogLevel, "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Int("rate-limit-per-minute", defaults.RateLimitPerMinute, "Per-IP request budget for protected endpoints")
	rootCmd.PersistentFlags().String("render-output-dir", defaults.RenderOutputDir, "Directory for EML/PDF artifacts (read into the config; no command writes files there)")

	if err := v.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		log.Fatal().Err(err).Msg("failed to bind flags")
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(envReplacer)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func initLogger() {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"})
}

func loadConfigFile() {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("abacus")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.abacus")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn().Err(err).Msg("error reading config file")
		}
	}
}
