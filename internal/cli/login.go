package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/strateos/strateos-go/internal/client"
	"github.com/strateos/strateos-go/internal/config"
)

var loginPassword string

// loginCmd authenticates the user and persists the resulting session.
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with Strateos and store the session",
	Long: `Login to Strateos with your account email and password. On success the
issued token, your user id, and the selected organization are stored in the
config file (~/.strateos.json by default).

When your account belongs to several organizations, pass the one to use with
--organization or pick it when prompted.

Examples:
  strateos login --email you@example.com
  strateos login --email you@example.com -o my-lab`,
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password (prompted when omitted)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg, err := config.Resolve(configFile, config.Overrides{
		APIRoot: apiRoot,
		Email:   emailFlag,
	})
	if err != nil {
		return err
	}

	reader := bufio.NewReader(cmd.InOrStdin())

	email := cfg.Email
	if email == "" {
		fmt.Fprint(cmd.OutOrStdout(), "Email: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read email: %w", err)
		}
		email = strings.TrimSpace(line)
	}

	password := loginPassword
	if password == "" {
		fmt.Fprint(cmd.OutOrStdout(), "Password: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimSpace(line)
	}

	conn, err := client.New(cfg)
	if err != nil {
		return err
	}
	result, err := conn.Login(email, password)
	if err != nil {
		return err
	}

	org, err := pickOrganization(cmd, reader, result.Organizations)
	if err != nil {
		return err
	}
	if err := conn.SelectOrganization(org); err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]string{
			"status":       "success",
			"email":        email,
			"organization": org,
			"config_file":  cfg.Path(),
		})
	} else {
		okLabel.Println("✓ Login successful")
		fmt.Printf("Organization: %s\n", org)
		fmt.Printf("Session saved to %s\n", cfg.Path())
	}
	return nil
}

// pickOrganization selects the organization context: the -o flag if given,
// the only membership if there is one, otherwise an interactive choice.
func pickOrganization(cmd *cobra.Command, reader *bufio.Reader, orgs []client.Organization) (string, error) {
	if orgID != "" {
		return orgID, nil
	}
	switch len(orgs) {
	case 0:
		return "", fmt.Errorf("your account belongs to no organization")
	case 1:
		return orgs[0].Subdomain, nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), "You belong to multiple organizations:")
	for i, o := range orgs {
		fmt.Fprintf(cmd.OutOrStdout(), "  %d. %s (%s)\n", i+1, o.Name, o.Subdomain)
	}
	fmt.Fprint(cmd.OutOrStdout(), "Which organization? ")
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read selection: %w", err)
	}
	choice := strings.TrimSpace(line)

	for i, o := range orgs {
		if choice == fmt.Sprintf("%d", i+1) || choice == o.Subdomain || choice == o.ID {
			return o.Subdomain, nil
		}
	}
	return "", fmt.Errorf("%q does not match any of your organizations", choice)
}

// selectOrgCmd switches the active organization without a fresh login.
var selectOrgCmd = &cobra.Command{
	Use:   "select-org ORGANIZATION_ID",
	Short: "Switch the active organization",
	Long: `Verify access to the given organization and make it the active context
for subsequent commands. The choice is persisted to the config file.

Example:
  strateos select-org my-lab`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := newConnection()
		if err != nil {
			return err
		}
		if err := conn.SelectOrganization(args[0]); err != nil {
			return err
		}
		if jsonOutput {
			printJSON(map[string]string{"organization": args[0]})
		} else {
			okLabel.Printf("✓ Active organization is now %s\n", args[0])
		}
		return nil
	},
}

// organizationsCmd lists organization memberships.
var organizationsCmd = &cobra.Command{
	Use:   "organizations",
	Short: "List the organizations you belong to",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := newConnection()
		if err != nil {
			return err
		}
		orgs, err := conn.Organizations()
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(orgs)
			return nil
		}
		for _, o := range orgs {
			fmt.Printf("%-30s %s\n", o.Name, o.Subdomain)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(selectOrgCmd)
	rootCmd.AddCommand(organizationsCmd)
}
