package cli

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	datasetKey         string
	uploadDatasetRun   string
	uploadDatasetTitle string
	uploadDatasetTool  string
	uploadDatasetVer   string
	datasetsProject    string
)

// datasetCmd fetches a dataset by id.
var datasetCmd = &cobra.Command{
	Use:   "dataset DATASET_ID",
	Short: "Fetch a dataset by id",
	Long: `Fetch the content of a dataset. Pass --key to select a sub-key of the
data; the whole document is fetched by default.

Examples:
  strateos dataset d1abc2def
  strateos dataset d1abc2def --key od600`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := newConnection()
		if err != nil {
			return err
		}
		data, err := conn.Dataset(args[0], datasetKey)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

// datasetsCmd lists the datasets attached to a run.
var datasetsCmd = &cobra.Command{
	Use:   "datasets RUN_ID",
	Short: "List the datasets attached to a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if datasetsProject == "" {
			return fmt.Errorf("a project is required; pass --project")
		}
		conn, err := newConnection()
		if err != nil {
			return err
		}
		projectID, err := conn.ProjectID(datasetsProject)
		if err != nil {
			return err
		}
		datasets, err := conn.Datasets(projectID, args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(datasets)
			return nil
		}
		for _, d := range datasets {
			fmt.Printf("%-40s %-20s %s\n", d.Title, d.DataType, d.ID)
		}
		return nil
	},
}

// uploadDatasetCmd uploads a file and attaches it to a run as a dataset.
var uploadDatasetCmd = &cobra.Command{
	Use:   "upload-dataset FILE",
	Short: "Upload a file and attach it to a run as a dataset",
	Long: `Upload analysis output and register it as a dataset on a run. The
content type is inferred from the file extension.

Example:
  strateos upload-dataset gel.png --run r1abc2def --title "Gel Image" --tool gel-analyzer --tool-version 2.1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if uploadDatasetRun == "" {
			return fmt.Errorf("a run is required; pass --run")
		}
		conn, err := newConnection()
		if err != nil {
			return err
		}

		file, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("unable to open %s: %w", args[0], err)
		}
		defer file.Close()

		name := filepath.Base(args[0])
		title := uploadDatasetTitle
		if title == "" {
			title = name
		}
		contentType := mime.TypeByExtension(filepath.Ext(name))

		dataset, err := conn.UploadDataset(file, name, title,
			uploadDatasetRun, uploadDatasetTool, uploadDatasetVer, contentType)
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(dataset)
		} else {
			okLabel.Printf("✓ Dataset %s attached to run %s\n", dataset.ID, uploadDatasetRun)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(datasetCmd)
	rootCmd.AddCommand(datasetsCmd)
	rootCmd.AddCommand(uploadDatasetCmd)

	datasetCmd.Flags().StringVar(&datasetKey, "key", "*", "Sub-key of the data to fetch")
	datasetsCmd.Flags().StringVarP(&datasetsProject, "project", "p", "", "Project name or id")

	uploadDatasetCmd.Flags().StringVar(&uploadDatasetRun, "run", "", "Run id to attach the dataset to")
	uploadDatasetCmd.Flags().StringVar(&uploadDatasetTitle, "title", "", "Dataset title (defaults to the file name)")
	uploadDatasetCmd.Flags().StringVar(&uploadDatasetTool, "tool", "", "Name of the analysis tool")
	uploadDatasetCmd.Flags().StringVar(&uploadDatasetVer, "tool-version", "", "Version of the analysis tool")
}
