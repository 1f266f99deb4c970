package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strateos/strateos-go/internal/client"
)

var (
	submitProject string
	submitTitle   string
	submitTest    bool
	submitPayment string
	runsProject   string
)

// runsCmd lists the runs of a project.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List the runs in a project",
	Long: `List the runs of a project with their ids and statuses.

Example:
  strateos runs --project "CRISPR Screen"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if runsProject == "" {
			return fmt.Errorf("a project is required; pass --project")
		}
		conn, err := newConnection()
		if err != nil {
			return err
		}
		projectID, err := conn.ProjectID(runsProject)
		if err != nil {
			return err
		}
		runs, err := conn.Runs(projectID)
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(runs)
			return nil
		}
		for _, r := range runs {
			fmt.Printf("%-40s %-12s %s\n", r.Title, r.Status, r.ID)
		}
		return nil
	},
}

// submitCmd submits an Autoprotocol document as a new run.
var submitCmd = &cobra.Command{
	Use:   "submit PROTOCOL_FILE",
	Short: "Submit an Autoprotocol document as a new run",
	Long: `Submit a protocol to a project for execution. The protocol file may be
JSON or YAML; pass "-" to read from stdin.

Examples:
  strateos submit protocol.json --project "CRISPR Screen" --title "First Run"
  my_protocol | strateos submit - --project p1abc2def --test`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if submitProject == "" {
			return fmt.Errorf("a project is required; pass --project")
		}
		protocol, err := readProtocolFile(args[0])
		if err != nil {
			return err
		}
		conn, err := newConnection()
		if err != nil {
			return err
		}
		projectID, err := conn.ProjectID(submitProject)
		if err != nil {
			return err
		}
		run, err := conn.SubmitRun(client.SubmitRunRequest{
			ProjectID:       projectID,
			Title:           submitTitle,
			Protocol:        protocol,
			TestMode:        submitTest,
			PaymentMethodID: submitPayment,
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(run)
		} else {
			okLabel.Printf("✓ Run created: %s\n", run.ID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(submitCmd)

	runsCmd.Flags().StringVarP(&runsProject, "project", "p", "", "Project name or id")

	submitCmd.Flags().StringVarP(&submitProject, "project", "p", "", "Project name or id")
	submitCmd.Flags().StringVar(&submitTitle, "title", "", "Title for the run")
	submitCmd.Flags().BoolVar(&submitTest, "test", false, "Submit as a test run")
	submitCmd.Flags().StringVar(&submitPayment, "payment", "", "Payment method id")
}
