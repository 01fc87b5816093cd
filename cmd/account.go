package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vankov/bgledger/internal/client"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage the chart of accounts",
}

var (
	acctCode       string
	acctName       string
	acctParent     string
	acctUnit       string
	acctQuantities bool
	acctVatDir     string
)

var accountCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account under the company's chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		req := &client.AccountRequest{
			Code:               acctCode,
			Name:               acctName,
			ParentCode:         acctParent,
			SupportsQuantities: acctQuantities,
			DefaultUnit:        acctUnit,
			VatDirection:       acctVatDir,
			IsVatApplicable:    acctVatDir != "",
		}
		created, err := apiClient().CreateAccount(context.Background(), companyID(), req)
		if err != nil {
			return err
		}
		fmt.Printf("Account created: %s %s (class %d, %s)\n",
			created.Code, created.Name, created.Class, created.Type)
		return nil
	},
}

var (
	acctListClass  string
	acctListType   string
	acctListLeaves bool
)

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		accounts, err := apiClient().ListAccounts(context.Background(), companyID(),
			acctListClass, acctListType, acctListLeaves)
		if err != nil {
			return err
		}
		if len(accounts) == 0 {
			fmt.Println("No accounts found.")
			return nil
		}
		fmt.Printf("%-8s %-40s %-10s %-6s %s\n", "CODE", "NAME", "TYPE", "QTY", "ACTIVE")
		for _, a := range accounts {
			name := a.Name
			if len([]rune(name)) > 38 {
				name = string([]rune(name)[:38]) + ".."
			}
			qty := ""
			if a.SupportsQuantities {
				qty = a.DefaultUnit
				if qty == "" {
					qty = "yes"
				}
			}
			fmt.Printf("%-8s %-40s %-10s %-6s %v\n", a.Code, name, a.Type, qty, a.IsActive)
		}
		return nil
	},
}

var accountGetCmd = &cobra.Command{
	Use:   "get [code]",
	Short: "Show account details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := apiClient().GetAccount(context.Background(), companyID(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Code:       %s\n", a.Code)
		fmt.Printf("Name:       %s\n", a.Name)
		fmt.Printf("Class:      %d\n", a.Class)
		fmt.Printf("Type:       %s\n", a.Type)
		fmt.Printf("Analytical: %v\n", a.IsAnalytical)
		fmt.Printf("Quantities: %v", a.SupportsQuantities)
		if a.DefaultUnit != "" {
			fmt.Printf(" (%s)", a.DefaultUnit)
		}
		fmt.Println()
		if a.IsVatApplicable {
			fmt.Printf("VAT:        %s\n", a.VatDirection)
		}
		fmt.Printf("Active:     %v\n", a.IsActive)
		return nil
	},
}

var acctActive bool

var accountActiveCmd = &cobra.Command{
	Use:   "set-active [code]",
	Short: "Activate or deactivate an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := apiClient().SetAccountActive(context.Background(), companyID(), args[0], acctActive)
		if err != nil {
			return err
		}
		fmt.Printf("Account %s active: %v\n", a.Code, a.IsActive)
		return nil
	},
}

func init() {
	accountCreateCmd.Flags().StringVar(&acctCode, "code", "", "Account code (e.g. 30201)")
	accountCreateCmd.Flags().StringVar(&acctName, "name", "", "Account name")
	accountCreateCmd.Flags().StringVar(&acctParent, "parent", "", "Parent account code")
	accountCreateCmd.Flags().BoolVar(&acctQuantities, "quantities", false, "Track quantities on this account")
	accountCreateCmd.Flags().StringVar(&acctUnit, "unit", "", "Quantity unit (бр., кг, л)")
	accountCreateCmd.Flags().StringVar(&acctVatDir, "vat-direction", "", "VAT direction (INPUT, OUTPUT or NONE)")
	accountCreateCmd.MarkFlagRequired("code")
	accountCreateCmd.MarkFlagRequired("name")

	accountListCmd.Flags().StringVar(&acctListClass, "class", "", "Filter by chart class (1-7)")
	accountListCmd.Flags().StringVar(&acctListType, "type", "", "Filter by type (ASSET, LIABILITY, ...)")
	accountListCmd.Flags().BoolVar(&acctListLeaves, "leaves", false, "Only postable leaf accounts")

	accountActiveCmd.Flags().BoolVar(&acctActive, "active", true, "New active state")

	accountCmd.AddCommand(accountCreateCmd)
	accountCmd.AddCommand(accountListCmd)
	accountCmd.AddCommand(accountGetCmd)
	accountCmd.AddCommand(accountActiveCmd)

	rootCmd.AddCommand(accountCmd)
}
