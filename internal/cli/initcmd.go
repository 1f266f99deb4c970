package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initForce bool

// manifest is the package manifest scaffold written by the init command.
type manifest struct {
	Format    string             `json:"format"`
	License   string             `json:"license"`
	Protocols []manifestProtocol `json:"protocols"`
}

type manifestProtocol struct {
	Name          string          `json:"name"`
	Version       string          `json:"version"`
	DisplayName   string          `json:"display_name"`
	Description   string          `json:"description"`
	CommandString string          `json:"command_string"`
	Inputs        map[string]any  `json:"inputs"`
	Preview       manifestPreview `json:"preview"`
}

type manifestPreview struct {
	Refs       map[string]any `json:"refs"`
	Parameters map[string]any `json:"parameters"`
}

// initCmd scaffolds a protocol package directory.
var initCmd = &cobra.Command{
	Use:   "init [DIRECTORY]",
	Short: "Initialize a directory with a manifest.json scaffold",
	Long: `Create a manifest.json scaffold describing a protocol package. The
directory is created when missing; an existing manifest is only overwritten
with --force.

Examples:
  strateos init
  strateos init my-package --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("unable to create directory %s: %w", dir, err)
		}

		path := filepath.Join(dir, "manifest.json")
		if _, err := os.Stat(path); err == nil && !initForce {
			return fmt.Errorf("%s already exists; pass --force to overwrite it", path)
		}

		scaffold := manifest{
			Format:  "python",
			License: "MIT",
			Protocols: []manifestProtocol{{
				Name:          "SampleProtocol",
				Version:       "0.0.1",
				DisplayName:   "Sample Protocol",
				Description:   "This is a protocol.",
				CommandString: "python sample_protocol.py",
				Inputs:        map[string]any{},
				Preview: manifestPreview{
					Refs:       map[string]any{},
					Parameters: map[string]any{},
				},
			}},
		}
		raw, err := json.MarshalIndent(scaffold, "", "  ")
		if err != nil {
			return fmt.Errorf("unable to encode manifest: %w", err)
		}
		if err := os.WriteFile(path, raw, 0o644); err != nil {
			return fmt.Errorf("unable to write %s: %w", path, err)
		}

		if jsonOutput {
			printJSON(map[string]string{"manifest": path})
		} else {
			okLabel.Printf("✓ Created %s\n", path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing manifest.json")
}
