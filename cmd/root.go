package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/opspilot/agui/pkg/config"
	"github.com/opspilot/agui/pkg/logger"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "agui",
	Short: "AG-UI event stream assembler",
	Long: `agui assembles AG-UI protocol event streams into renderable
message models: incremental text deltas, a private thinking channel,
inline tool invocations, and custom component payloads, reduced to
ordered, addressable content.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is .agui/settings.yaml)")

	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level")
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.PersistentFlags().Bool("show-thinking", true, "include the thinking channel in output")
	viper.BindPFlag("assembler.show_thinking", rootCmd.PersistentFlags().Lookup("show-thinking"))
}

func initConfig() {
	if _, err := config.Load(cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	if file := config.GetConfigFileUsed(); file != "" {
		logger.Debug("using config file %s", file)
	}
}
