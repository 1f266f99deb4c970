package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var inventoryPage int

// resourcesCmd searches the catalog of provisionable resources.
var resourcesCmd = &cobra.Command{
	Use:   "resources QUERY",
	Short: "Search provisionable resources by name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := newConnection()
		if err != nil {
			return err
		}
		resources, err := conn.Resources(strings.Join(args, " "))
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(resources)
			return nil
		}
		for _, r := range resources {
			fmt.Printf("%-50s %s\n", r.Name, r.ID)
		}
		return nil
	},
}

// kitsCmd searches purchasable kits.
var kitsCmd = &cobra.Command{
	Use:   "kits QUERY",
	Short: "Search purchasable kits by name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := newConnection()
		if err != nil {
			return err
		}
		kits, err := conn.Kits(strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Println(string(kits))
		return nil
	},
}

// inventoryCmd searches the organization's sample inventory.
var inventoryCmd = &cobra.Command{
	Use:   "inventory QUERY",
	Short: "Search the organization's sample inventory",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := newConnection()
		if err != nil {
			return err
		}
		inventory, err := conn.Inventory(strings.Join(args, " "), inventoryPage)
		if err != nil {
			return err
		}
		fmt.Println(string(inventory))
		return nil
	},
}

// paymentsCmd lists the organization's payment methods.
var paymentsCmd = &cobra.Command{
	Use:   "payments",
	Short: "List the organization's payment methods",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := newConnection()
		if err != nil {
			return err
		}
		methods, err := conn.PaymentMethods()
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(methods)
			return nil
		}
		for _, m := range methods {
			fmt.Printf("%-40s %s\n", m.Description, m.ID)
		}
		return nil
	},
}

// derefCmd fetches any object by bare id.
var derefCmd = &cobra.Command{
	Use:   "deref OBJECT_ID",
	Short: "Fetch any platform object by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := newConnection()
		if err != nil {
			return err
		}
		obj, err := conn.Deref(args[0])
		if err != nil {
			return err
		}
		fmt.Println(string(obj))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resourcesCmd)
	rootCmd.AddCommand(kitsCmd)
	rootCmd.AddCommand(inventoryCmd)
	rootCmd.AddCommand(paymentsCmd)
	rootCmd.AddCommand(derefCmd)

	inventoryCmd.Flags().IntVar(&inventoryPage, "page", 0, "Result page to fetch")
}
