package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/seaward/cnwatch/internal/config"
	"github.com/seaward/cnwatch/internal/logging"
)

var (
	cfgFile      string
	outputFormat string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "cnwatch",
	Short: "Watchdog for a camera streaming service",
	Long: `cnwatch is a cron-friendly watchdog for a camera streaming service on a
single-board device. Each run probes the stream endpoint once, restarts the
owning service when it is down (with increasing backoff between attempts),
and throttles restarts after repeated failed recovery cycles.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/cnwatch/config.yaml or $HOME/.cnwatch/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output", "table", "output format: table or json")
}

// loadConfig resolves the effective configuration for a command invocation
func loadConfig() (config.Config, error) {
	return config.Load(viper.New(), cfgFile)
}

// newLogger builds the configured logger, falling back to stdout when the
// log directory is not writable
func newLogger(cfg config.Config) *logging.Logger {
	level := logging.ParseLevel(cfg.LogLevel)
	logger, err := logging.NewFileLogger("cnwatch", level, cfg.LogJSON)
	if err != nil {
		return logging.NewLogger(level, cfg.LogJSON)
	}
	return logger
}

// IsJSONOutput returns true if JSON output is requested
func IsJSONOutput() bool {
	return outputFormat == "json"
}
