package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strateos/strateos-go/internal/autoprotocol"
	"github.com/strateos/strateos-go/internal/english"
)

var analyzeTest bool

// analyzeCmd validates a protocol against the server without executing it.
var analyzeCmd = &cobra.Command{
	Use:   "analyze PROTOCOL_FILE",
	Short: "Validate a protocol without executing it",
	Long: `Send a protocol to the server for validation and pricing. Nothing is
executed; the server reports the cost breakdown when the protocol is valid.

Examples:
  strateos analyze protocol.json
  strateos analyze protocol.json --test`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		protocol, err := readProtocolFile(args[0])
		if err != nil {
			return err
		}
		conn, err := newConnection()
		if err != nil {
			return err
		}
		result, err := conn.AnalyzeRun(protocol, analyzeTest)
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(result)
			return nil
		}

		okLabel.Println("✓ Protocol analyzed")
		fmt.Printf("  %d instructions over %d refs\n",
			len(result.Instructions), len(result.Refs))
		if result.Quote != nil {
			for _, item := range result.Quote.Items {
				fmt.Printf("  %-30s %s\n", item.Title, item.Cost)
			}
		}
		return nil
	},
}

// previewCmd posts a protocol preview and prints its URL.
var previewCmd = &cobra.Command{
	Use:   "preview PROTOCOL_FILE",
	Short: "Preview a protocol in the browser",
	Long: `Upload a protocol for preview and print the URL at which it can be
inspected.

Example:
  strateos preview protocol.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		protocol, err := readProtocolFile(args[0])
		if err != nil {
			return err
		}
		conn, err := newConnection()
		if err != nil {
			return err
		}
		loc, err := conn.PreviewProtocol(protocol)
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(map[string]string{"url": loc})
		} else {
			fmt.Printf("Preview: %s\n", loc)
		}
		return nil
	},
}

// summarizeCmd renders a protocol as plain English, entirely locally.
var summarizeCmd = &cobra.Command{
	Use:   "summarize PROTOCOL_FILE",
	Short: "Render a protocol as plain English",
	Long: `Parse a protocol locally and print each instruction as an English
sentence. No request is made to the server.

Example:
  strateos summarize protocol.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readProtocolFile(args[0])
		if err != nil {
			return err
		}
		protocol, err := autoprotocol.Parse(raw)
		if err != nil {
			return err
		}
		lines, err := english.Summarize(protocol)
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(lines)
			return nil
		}
		for _, line := range lines {
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(summarizeCmd)

	analyzeCmd.Flags().BoolVar(&analyzeTest, "test", false, "Analyze as a test run")
}
