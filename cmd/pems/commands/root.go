package commands

import (
	"log"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Ewixxx/PEMS/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:   version.BinaryName,
	Short: "A monitoring and control server for animal enclosures",
	Long: `The server component for the poultry environment monitoring system.

This component exposes an HTTP API that ingests telemetry from the enclosure
sensor node, arbitrates fan and misting commands between the automatic
controller and operators, proxies the enclosure camera stream, and sends
low water alerts by email.`,
	Version: version.VersionString(),
}

func init() {
	viper.SetEnvPrefix("pems")
	viper.AutomaticEnv()
	replacer := strings.NewReplacer("-", "_")
	viper.SetEnvKeyReplacer(replacer)

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Boolean flag to enable verbose logging")
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// Execute is the main entry point for our cobra commands
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
