// Package cli implements the strateos command line interface on top of the
// client library. Commands resolve a session configuration from flags,
// environment, and the dotfile, then call the Connection facade.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/strateos/strateos-go/internal/client"
	"github.com/strateos/strateos-go/internal/config"
)

var (
	// Global flags
	jsonOutput bool
	configFile string
	apiRoot    string
	orgID      string
	tokenFlag  string
	emailFlag  string
)

var okLabel = color.New(color.FgGreen)
var errorLabel = color.New(color.FgRed)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "strateos [command] [flags]",
	Short: "Strateos CLI - submit and manage protocols on the Strateos platform",
	Long: `Strateos CLI is a command line interface for the Strateos robotic cloud
laboratory. It submits Autoprotocol runs, manages projects and protocol
packages, and retrieves datasets.

Examples:
  # Authenticate and pick an organization
  strateos login --email you@example.com

  # Submit a protocol to a project
  strateos submit protocol.json --project "My Project" --title "First Run"

  # Validate a protocol without running it
  strateos analyze protocol.json

  # Read a protocol as plain English
  strateos summarize protocol.json`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to configuration file to override default")
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&apiRoot, "api-root", "", "API root URL to override default")
	rootCmd.PersistentFlags().StringVarP(&orgID, "organization", "o", "", "Organization id to act under")
	rootCmd.PersistentFlags().StringVar(&tokenFlag, "token", "", "Authentication token to override config")
	rootCmd.PersistentFlags().StringVar(&emailFlag, "email", "", "Account email to override config")

	rootCmd.AddCommand(newVersionCmd())
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SilenceErrors = true // Prevent Cobra from printing the error
	rootCmd.SilenceUsage = true  // Prevent Cobra from printing usage on error

	err := rootCmd.Execute()
	if err != nil {
		if jsonOutput {
			kv := map[string]string{
				"error": err.Error(),
			}
			printJSON(kv)
		} else {
			errorLabel.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		if errors.Is(err, client.ErrAuth) {
			fmt.Fprintln(os.Stderr, "Run \"strateos login\" to refresh your credentials.")
		}
		os.Exit(1)
	}
}

// resolveConfig builds the session configuration from the dotfile, the
// environment, and the persistent flags, in ascending precedence.
func resolveConfig() (*config.Config, error) {
	return config.Resolve(configFile, config.Overrides{
		APIRoot:        apiRoot,
		Email:          emailFlag,
		Token:          tokenFlag,
		OrganizationID: orgID,
	})
}

// newConnection resolves the configuration and opens a connection with it.
func newConnection() (*client.Connection, error) {
	cfg, err := resolveConfig()
	if err != nil {
		return nil, err
	}
	return client.New(cfg)
}

// newVersionCmd creates and returns a new version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of the strateos CLI",
		Run: func(cmd *cobra.Command, args []string) {
			configPath, err := config.DefaultPath()
			if err != nil {
				configPath = "unknown"
			}
			if configFile != "" {
				configPath = configFile
			}

			if jsonOutput {
				kv := map[string]string{
					"version":     client.Version,
					"config_file": configPath,
				}
				printJSON(kv)
			} else {
				cmd.Printf("strateos CLI %s\n", client.Version)
				cmd.Printf("Config file: %s\n", configPath)
			}
		},
	}
}

// printJSON prints the given value as JSON to stdout
func printJSON(data interface{}) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(jsonData))
}
