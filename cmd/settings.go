package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the company's default posting accounts",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the default posting accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := apiClient().GetSettings(context.Background(), companyID())
		if err != nil {
			return err
		}
		fmt.Printf("Sales revenue:      %s\n", cfg.SalesRevenueAccount)
		fmt.Printf("Sales services:     %s\n", cfg.SalesServicesAccount)
		fmt.Printf("Sales receivables:  %s\n", cfg.SalesReceivablesAccount)
		fmt.Printf("Purchase expense:   %s\n", cfg.PurchaseExpenseAccount)
		fmt.Printf("Purchase payables:  %s\n", cfg.PurchasePayablesAccount)
		fmt.Printf("VAT input:          %s\n", cfg.VatInputAccount)
		fmt.Printf("VAT output:         %s\n", cfg.VatOutputAccount)
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change default posting accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := apiClient()
		ctx := context.Background()
		cfg, err := c.GetSettings(ctx, companyID())
		if err != nil {
			return err
		}
		apply := func(flag string, dst *string) {
			if cmd.Flags().Changed(flag) {
				v, _ := cmd.Flags().GetString(flag)
				*dst = v
			}
		}
		apply("sales-revenue", &cfg.SalesRevenueAccount)
		apply("sales-services", &cfg.SalesServicesAccount)
		apply("sales-receivables", &cfg.SalesReceivablesAccount)
		apply("purchase-expense", &cfg.PurchaseExpenseAccount)
		apply("purchase-payables", &cfg.PurchasePayablesAccount)
		apply("vat-input", &cfg.VatInputAccount)
		apply("vat-output", &cfg.VatOutputAccount)

		if _, err := c.UpdateSettings(ctx, companyID(), cfg); err != nil {
			return err
		}
		fmt.Println("Settings updated.")
		return nil
	},
}

func init() {
	for _, f := range []string{
		"sales-revenue", "sales-services", "sales-receivables",
		"purchase-expense", "purchase-payables", "vat-input", "vat-output",
	} {
		settingsSetCmd.Flags().String(f, "", "Account code for "+f)
	}

	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)

	rootCmd.AddCommand(settingsCmd)
}
