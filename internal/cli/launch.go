package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/strateos/strateos-go/internal/client"
)

var (
	launchParamsFile string
	launchWorkcell   string
)

// protocolsCmd lists the protocols available to the organization.
var protocolsCmd = &cobra.Command{
	Use:   "protocols",
	Short: "List the protocols available to the organization",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := newConnection()
		if err != nil {
			return err
		}
		protocols, err := conn.Protocols()
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(protocols)
			return nil
		}
		for _, p := range protocols {
			name := p.Name
			if p.PackageName != "" {
				name = p.PackageName + "/" + p.Name
			}
			fmt.Printf("%-50s %s\n", name, p.ID)
		}
		return nil
	},
}

// launchCmd starts server-side generation of a launch request and polls it
// until the inputs resolve.
var launchCmd = &cobra.Command{
	Use:   "launch PROTOCOL_ID",
	Short: "Launch a protocol with a set of inputs",
	Long: `Post protocol inputs and wait for the server to resolve them into an
executable launch request. The inputs file may be JSON or YAML.

Pass --workcell to submit the launch directly to an execution host instead of
the configured API root; the response is printed as returned, without polling.

Examples:
  strateos launch pr1abc2def --params inputs.json
  strateos launch pr1abc2def --params inputs.json --workcell http://workcell.local:5000`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if launchParamsFile == "" {
			return fmt.Errorf("launch inputs are required; pass --params")
		}
		params, err := readJSONFile(launchParamsFile)
		if err != nil {
			return err
		}
		conn, err := newConnection()
		if err != nil {
			return err
		}

		var opts []client.LaunchOption
		if launchWorkcell != "" {
			opts = append(opts, client.WithExecutionBase(launchWorkcell))
		}
		lr, err := conn.LaunchProtocol(args[0], params, opts...)
		if err != nil {
			return err
		}

		if launchWorkcell != "" {
			if jsonOutput {
				printJSON(lr)
			} else {
				okLabel.Printf("✓ Launch submitted to %s: %s\n", launchWorkcell, lr.ID)
			}
			return nil
		}

		for lr.Progress < 100 {
			time.Sleep(2 * time.Second)
			lr, err = conn.GetLaunchRequest(args[0], lr.ID)
			if err != nil {
				return err
			}
		}
		if len(lr.GenerationErrors) > 0 {
			for _, e := range lr.GenerationErrors {
				errorLabel.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", e.Message)
			}
			return fmt.Errorf("launch request %s failed to generate", lr.ID)
		}

		if jsonOutput {
			printJSON(lr)
		} else {
			okLabel.Printf("✓ Launch request ready: %s\n", lr.ID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(protocolsCmd)
	rootCmd.AddCommand(launchCmd)

	launchCmd.Flags().StringVar(&launchParamsFile, "params", "", "Protocol inputs file (JSON or YAML)")
	launchCmd.Flags().StringVar(&launchWorkcell, "workcell", "", "Execution host base URL to launch against")
}
