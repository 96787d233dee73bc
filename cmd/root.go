package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/itiky/blogsync/config"
	"github.com/itiky/blogsync/logging"
)

const (
	FlagConfig   = "config"
	FlagLogLevel = "log-level"
)

// rootCmd is a base command.
var rootCmd = &cobra.Command{
	Use:   "blogsync",
	Short: "Blog API client with a local cache, plus a development API server",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.ConfigureRuntime()
	},
}

// loadConfig resolves the configuration, the --log-level flag overrides the configured level.
func loadConfig(cmd *cobra.Command) config.Config {
	path, err := cmd.Flags().GetString(FlagConfig)
	if err != nil {
		log.Fatal().Err(err).Msgf("%s flag", FlagConfig)
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal().Err(err).Msg("config load")
	}

	level := cfg.LogLevel
	if cmd.Flags().Changed(FlagLogLevel) {
		if level, err = cmd.Flags().GetString(FlagLogLevel); err != nil {
			log.Fatal().Err(err).Msgf("%s flag", FlagLogLevel)
		}
	}
	if level != "" && !logging.SetLevel(level) {
		log.Warn().Str("level", level).Msg("unknown log level ignored")
	}

	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("rootCmd.Execute")
	}
}

func init() {
	rootCmd.PersistentFlags().String(FlagConfig, "", "(optional) TOML config file path")
	rootCmd.PersistentFlags().String(FlagLogLevel, "", "(optional) log level override (trace, debug, info, warn, error)")
}
