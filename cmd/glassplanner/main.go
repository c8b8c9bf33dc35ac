package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	appLog "glassplanner/internal/log"
)

const version = "0.1.0"

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "glassplanner",
	Short: "GlassPlanner - assignment dashboard for calendar exports",
	Long: `GlassPlanner turns a Canvas-style .ics calendar export into a filterable
assignment dashboard, with an optional Gemini-backed study assistant.

Configuration hierarchy (highest to lowest priority):
  1. CLI flags
  2. Environment variables (GLASSPLANNER_*, GEMINI_API_KEY)
  3. Config file (default ./glassplanner.yaml)
  4. Defaults`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetBool("verbose") {
			appLog.SetLevel(appLog.LevelDebug)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = appLog.Sync()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "glassplanner v%s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initEnv)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "glassplanner.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd, serveCmd, parseCmd)
}

// initEnv maps GLASSPLANNER_* variables onto viper keys. The API key also
// honours the conventional GEMINI_API_KEY.
func initEnv() {
	viper.SetEnvPrefix("GLASSPLANNER")
	viper.AutomaticEnv()
	_ = viper.BindEnv("api_key", "GLASSPLANNER_API_KEY", "GEMINI_API_KEY")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		appLog.Error("glassplanner failed", err)
		_ = appLog.Sync()
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
