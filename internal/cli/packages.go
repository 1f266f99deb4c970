package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

var createPackageDescription string

// packagesCmd lists the protocol packages of the organization.
var packagesCmd = &cobra.Command{
	Use:   "packages",
	Short: "List the protocol packages in the active organization",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := newConnection()
		if err != nil {
			return err
		}
		packages, err := conn.Packages()
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(packages)
			return nil
		}
		for _, p := range packages {
			fmt.Printf("%-50s %s\n", p.Name, p.ID)
		}
		return nil
	},
}

// createPackageCmd creates a package namespaced under the organization.
var createPackageCmd = &cobra.Command{
	Use:   "create-package PACKAGE_NAME",
	Short: "Create a new protocol package",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := newConnection()
		if err != nil {
			return err
		}
		pkg, err := conn.CreatePackage(args[0], createPackageDescription)
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(pkg)
		} else {
			okLabel.Printf("✓ Created package %q with id %s\n", pkg.Name, pkg.ID)
		}
		return nil
	},
}

// deletePackageCmd deletes a package.
var deletePackageCmd = &cobra.Command{
	Use:   "delete-package PACKAGE_NAME_OR_ID",
	Short: "Delete a protocol package",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := newConnection()
		if err != nil {
			return err
		}
		packageID, err := conn.PackageID(args[0])
		if err != nil {
			return err
		}
		if err := conn.DeletePackage(packageID); err != nil {
			return err
		}
		if jsonOutput {
			printJSON(map[string]string{"id": packageID, "status": "deleted"})
		} else {
			okLabel.Printf("✓ Deleted package %s\n", packageID)
		}
		return nil
	},
}

// uploadReleaseCmd uploads a release archive and waits for its validation.
var uploadReleaseCmd = &cobra.Command{
	Use:   "upload-release ARCHIVE_FILE PACKAGE_NAME_OR_ID",
	Short: "Upload a release archive to a package",
	Long: `Upload a zip archive as a new release of a package and wait for the
server to validate it. Validation errors are printed when the release is
rejected.

Example:
  strateos upload-release release_v1.2.zip com.my-lab.cloning`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := newConnection()
		if err != nil {
			return err
		}
		packageID, err := conn.PackageID(args[1])
		if err != nil {
			return err
		}

		archive, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("unable to open archive %s: %w", args[0], err)
		}
		defer archive.Close()

		release, err := conn.UploadRelease(archive, filepath.Base(args[0]), packageID)
		if err != nil {
			return err
		}

		for release.Status != "validated" && release.Status != "failed" {
			time.Sleep(2 * time.Second)
			release, err = conn.ReleaseStatus(packageID, release.ID)
			if err != nil {
				return err
			}
		}
		if release.Status == "failed" {
			for _, e := range release.Errors {
				errorLabel.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", e.Message)
			}
			return fmt.Errorf("release %s failed validation", release.ID)
		}

		if jsonOutput {
			printJSON(release)
		} else {
			okLabel.Printf("✓ Release %s validated\n", release.ID)
		}
		return nil
	},
}

// releaseStatusCmd reports the validation state of a release.
var releaseStatusCmd = &cobra.Command{
	Use:   "release-status PACKAGE_NAME_OR_ID RELEASE_ID",
	Short: "Show the validation status of a release",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := newConnection()
		if err != nil {
			return err
		}
		packageID, err := conn.PackageID(args[0])
		if err != nil {
			return err
		}
		release, err := conn.ReleaseStatus(packageID, args[1])
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(release)
			return nil
		}
		fmt.Printf("Release %s: %s (%d%%)\n", release.ID, release.Status, release.Progress)
		for _, e := range release.Errors {
			errorLabel.Printf("  %s\n", e.Message)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(packagesCmd)
	rootCmd.AddCommand(createPackageCmd)
	rootCmd.AddCommand(deletePackageCmd)
	rootCmd.AddCommand(uploadReleaseCmd)
	rootCmd.AddCommand(releaseStatusCmd)

	createPackageCmd.Flags().StringVarP(&createPackageDescription, "description", "d", "",
		"Package description")
}
