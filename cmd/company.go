package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vankov/bgledger/internal/client"
	"github.com/vankov/bgledger/internal/ledger"
)

var companyCmd = &cobra.Command{
	Use:   "company",
	Short: "Manage companies",
}

var (
	companyName      string
	companyEik       string
	companyVatNumber string
	companyCity      string
	companyNumbering string
	companyStock     string
	companySubmitted string
)

var companyCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a company with a seeded chart of accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := apiClient()
		created, err := c.CreateCompany(context.Background(), &client.CompanyRequest{
			Name:                  companyName,
			Eik:                   companyEik,
			VatNumber:             companyVatNumber,
			City:                  companyCity,
			NumberingPolicy:       companyNumbering,
			NegativeStockPolicy:   companyStock,
			SubmittedPeriodPolicy: companySubmitted,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Company created: %d %s (ЕИК %s)\n", created.ID, created.Name, created.Eik)
		return nil
	},
}

var companyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List companies",
	RunE: func(cmd *cobra.Command, args []string) error {
		companies, err := apiClient().ListCompanies(context.Background())
		if err != nil {
			return err
		}
		if len(companies) == 0 {
			fmt.Println("No companies found.")
			return nil
		}
		fmt.Printf("%-5s %-30s %-12s %s\n", "ID", "NAME", "EIK", "VAT NUMBER")
		for _, c := range companies {
			fmt.Printf("%-5d %-30s %-12s %s\n", c.ID, c.Name, c.Eik, c.VatNumber)
		}
		return nil
	},
}

var companyGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show company details and policies",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := apiClient().GetCompany(context.Background(), companyID())
		if err != nil {
			return err
		}
		fmt.Printf("ID:               %d\n", c.ID)
		fmt.Printf("Name:             %s\n", c.Name)
		fmt.Printf("EIK:              %s\n", c.Eik)
		fmt.Printf("VAT number:       %s\n", c.VatNumber)
		fmt.Printf("Numbering:        %s\n", c.NumberingPolicy)
		fmt.Printf("Negative stock:   %s\n", c.NegativeStockPolicy)
		fmt.Printf("Submitted period: %s\n", c.SubmittedPeriodPolicy)
		return nil
	},
}

var (
	cpName     string
	cpEik      string
	cpVat      string
	cpVatPayer bool
)

var counterpartCreateCmd = &cobra.Command{
	Use:   "counterpart-create",
	Short: "Register a counterpart",
	RunE: func(cmd *cobra.Command, args []string) error {
		cp, err := apiClient().CreateCounterpart(context.Background(), companyID(), &ledger.Counterpart{
			Name:       cpName,
			Eik:        cpEik,
			VatNumber:  cpVat,
			IsVatPayer: cpVatPayer,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Counterpart created: %d %s\n", cp.ID, cp.Name)
		return nil
	},
}

var counterpartListCmd = &cobra.Command{
	Use:   "counterpart-list",
	Short: "List counterparts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cps, err := apiClient().ListCounterparts(context.Background(), companyID())
		if err != nil {
			return err
		}
		if len(cps) == 0 {
			fmt.Println("No counterparts found.")
			return nil
		}
		fmt.Printf("%-5s %-35s %-12s %s\n", "ID", "NAME", "EIK", "VAT NUMBER")
		for _, cp := range cps {
			fmt.Printf("%-5d %-35s %-12s %s\n", cp.ID, cp.Name, cp.Eik, cp.VatNumber)
		}
		return nil
	},
}

func init() {
	companyCreateCmd.Flags().StringVar(&companyName, "name", "", "Company name")
	companyCreateCmd.Flags().StringVar(&companyEik, "eik", "", "ЕИК (company registry number)")
	companyCreateCmd.Flags().StringVar(&companyVatNumber, "vat-number", "", "VAT number (BG...)")
	companyCreateCmd.Flags().StringVar(&companyCity, "city", "", "City")
	companyCreateCmd.Flags().StringVar(&companyNumbering, "numbering", "", "Entry numbering policy (TIMESTAMP_BASED or SEQUENTIAL_PER_COMPANY)")
	companyCreateCmd.Flags().StringVar(&companyStock, "negative-stock", "", "Negative stock policy (REJECT or ALLOW)")
	companyCreateCmd.Flags().StringVar(&companySubmitted, "submitted-period", "", "Submitted period policy (REJECT or AMEND)")
	companyCreateCmd.MarkFlagRequired("name")
	companyCreateCmd.MarkFlagRequired("eik")

	counterpartCreateCmd.Flags().StringVar(&cpName, "name", "", "Counterpart name")
	counterpartCreateCmd.Flags().StringVar(&cpEik, "eik", "", "ЕИК")
	counterpartCreateCmd.Flags().StringVar(&cpVat, "vat-number", "", "VAT number")
	counterpartCreateCmd.Flags().BoolVar(&cpVatPayer, "vat-payer", true, "Registered under the VAT act")
	counterpartCreateCmd.MarkFlagRequired("name")

	companyCmd.AddCommand(companyCreateCmd)
	companyCmd.AddCommand(companyListCmd)
	companyCmd.AddCommand(companyGetCmd)
	companyCmd.AddCommand(counterpartCreateCmd)
	companyCmd.AddCommand(counterpartListCmd)

	rootCmd.AddCommand(companyCmd)
}
