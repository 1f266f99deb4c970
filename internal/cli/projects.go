package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteProjectForce bool

// projectsCmd lists projects in the active organization.
var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List projects in the active organization",
	Long: `List the projects of the active organization with their ids. Archived
projects are marked.

Examples:
  strateos projects
  strateos projects -j`,
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := newConnection()
		if err != nil {
			return err
		}
		projects, err := conn.Projects()
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(projects)
			return nil
		}
		for _, p := range projects {
			marker := ""
			if p.Archived() {
				marker = " (archived)"
			}
			fmt.Printf("%-40s %s%s\n", p.Name, p.ID, marker)
		}
		return nil
	},
}

// createProjectCmd creates a project.
var createProjectCmd = &cobra.Command{
	Use:   "create-project PROJECT_NAME",
	Short: "Create a new project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := newConnection()
		if err != nil {
			return err
		}
		project, err := conn.CreateProject(args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(project)
		} else {
			okLabel.Printf("✓ Created project %q with id %s\n", project.Name, project.ID)
		}
		return nil
	},
}

// deleteProjectCmd deletes a project, archiving instead when it has runs.
var deleteProjectCmd = &cobra.Command{
	Use:   "delete-project PROJECT_NAME_OR_ID",
	Short: "Delete a project, archiving it if it contains runs",
	Long: `Delete a project by name or id. A project that still contains runs cannot
be deleted; pass --force to archive it instead in that case.

Examples:
  strateos delete-project "Old Screens"
  strateos delete-project p1abc2def --force`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := newConnection()
		if err != nil {
			return err
		}
		projectID, err := conn.ProjectID(args[0])
		if err != nil {
			return err
		}

		err = conn.DeleteProject(projectID)
		if err != nil && deleteProjectForce {
			if archiveErr := conn.ArchiveProject(projectID); archiveErr != nil {
				return archiveErr
			}
			if jsonOutput {
				printJSON(map[string]string{"id": projectID, "status": "archived"})
			} else {
				okLabel.Printf("✓ Project %s could not be deleted and was archived instead\n", projectID)
			}
			return nil
		}
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(map[string]string{"id": projectID, "status": "deleted"})
		} else {
			okLabel.Printf("✓ Deleted project %s\n", projectID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(createProjectCmd)
	rootCmd.AddCommand(deleteProjectCmd)

	deleteProjectCmd.Flags().BoolVarP(&deleteProjectForce, "force", "f", false,
		"Archive the project when deletion is refused")
}
