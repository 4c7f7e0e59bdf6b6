// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"firestige.xyz/kyber/internal/config"
)

var (
	// Global flags
	configFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "kyber",
	Short: "kyber - single-stream binary container writer",
	Long: `kyber frames pre-encoded media packets into a bare binary container.

Each packet is written as a 16-byte header (big-endian timestamp and
payload size, 4 reserved bytes) followed by the payload. A container
carries exactly one stream, whose media type must match the format.

Packets are read from RTP-over-UDP capture files (pcap / pcapng) and
written to a file, stdout or a UDP destination.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path (defaults plus KYBER_* env when empty)")

	rootCmd.AddCommand(muxCmd)
	rootCmd.AddCommand(validateCmd)
}

// loadConfig reads the config file named by --config, or the defaults.
func loadConfig() (*config.GlobalConfig, error) {
	if configFile == "" {
		return config.Default()
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", configFile, err)
	}
	return cfg, nil
}

// exitWithError prints error message and exits with code 1
func exitWithError(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	}
	os.Exit(1)
}
