package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vankov/bgledger/internal/ledger"
)

var vatCmd = &cobra.Command{
	Use:   "vat",
	Short: "Monthly VAT returns and NRA export",
}

var (
	vatYear  int
	vatMonth int
)

var vatListCmd = &cobra.Command{
	Use:   "list",
	Short: "List VAT returns",
	RunE: func(cmd *cobra.Command, args []string) error {
		returns, err := apiClient().ListVatReturns(context.Background(), companyID())
		if err != nil {
			return err
		}
		if len(returns) == 0 {
			fmt.Println("No VAT returns.")
			return nil
		}
		fmt.Printf("%-8s %-10s %12s %12s %12s\n", "PERIOD", "STATUS", "OUTPUT VAT", "DEDUCTIBLE", "TO PAY")
		for _, r := range returns {
			fmt.Printf("%-8s %-10s %12s %12s %12s\n", r.PeriodLabel(), r.Status,
				r.TotalOutputVat().StringFixed(2), r.DeductibleVat().StringFixed(2), r.VatToPay().StringFixed(2))
		}
		return nil
	},
}

var vatGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show a VAT return's declaration cells",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := apiClient().GetVatReturn(context.Background(), companyID(), vatYear, vatMonth)
		if err != nil {
			return err
		}
		printVatReturn(r)
		return nil
	},
}

var vatRecomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Rebuild a return from its posted entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := apiClient().RecomputeVatReturn(context.Background(), companyID(), vatYear, vatMonth)
		if err != nil {
			return err
		}
		fmt.Printf("Return %s recomputed from %d sales and %d purchase documents.\n",
			r.PeriodLabel(), r.SalesDocumentCount, r.PurchaseDocumentCount)
		return nil
	},
}

var vatSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a return, freezing its figures",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := apiClient().SubmitVatReturn(context.Background(), companyID(), vatYear, vatMonth)
		if err != nil {
			return err
		}
		fmt.Printf("Return %s submitted.\n", r.PeriodLabel())
		return nil
	},
}

var vatApproveCmd = &cobra.Command{
	Use:   "approve",
	Short: "Approve a submitted return",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := apiClient().ApproveVatReturn(context.Background(), companyID(), vatYear, vatMonth)
		if err != nil {
			return err
		}
		fmt.Printf("Return %s approved.\n", r.PeriodLabel())
		return nil
	},
}

var vatExportDir string

var vatExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write DEKLAR.TXT, POKUPKI.TXT and PRODAGBI.TXT",
	Long: "Download the three NRA exchange files for the period and write them to\n" +
		"the output directory. The files are fixed-width, Windows-1251 encoded.",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := apiClient()
		ctx := context.Background()
		files := map[string]string{
			"deklar":   "DEKLAR.TXT",
			"pokupki":  "POKUPKI.TXT",
			"prodagbi": "PRODAGBI.TXT",
		}
		if err := os.MkdirAll(vatExportDir, 0o755); err != nil {
			return err
		}
		for name, filename := range files {
			data, err := c.ExportVatFile(ctx, companyID(), vatYear, vatMonth, name)
			if err != nil {
				return err
			}
			path := filepath.Join(vatExportDir, filename)
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return err
			}
			fmt.Printf("Wrote %s (%d bytes)\n", path, len(data))
		}
		return nil
	},
}

func printVatReturn(r *ledger.VatReturn) {
	fmt.Printf("Period:  %s (%s)\n", r.PeriodLabel(), r.Status)
	fmt.Printf("Sales documents:    %d\n", r.SalesDocumentCount)
	fmt.Printf("Purchase documents: %d\n", r.PurchaseDocumentCount)
	fmt.Println()
	cell := func(no, label string, v fmt.Stringer) {
		fmt.Printf("  [01-%s] %-42s %14s\n", no, label, v)
	}
	cell("01", "Общ размер на данъчните основи", r.TotalSalesBase())
	cell("20", "Начислен ДДС", r.TotalOutputVat())
	cell("11", "Данъчна основа 20%", r.SalesBase20)
	cell("21", "ДДС 20%", r.SalesVat20)
	cell("12", "ВОП данъчна основа", r.IcaBase)
	cell("22", "ДДС върху ВОП", r.IcaVat)
	cell("23", "ДДС за лично ползване", r.PersonalUseVat)
	cell("13", "Данъчна основа 9%", r.SalesBase9)
	cell("24", "ДДС 9%", r.SalesVat9)
	cell("14", "Доставки по глава трета", r.SalesBase0Chapter3)
	cell("15", "ВОД данъчна основа", r.IcdBase)
	cell("16", "Износ", r.ExportBase)
	cell("17", "Услуги по чл.21 ал.2", r.Art21ServicesBase)
	cell("18", "Доставки по чл.69 ал.2", r.Art69SuppliesBase)
	cell("19", "Освободени доставки", r.ExemptBase)
	cell("30", "Без право на данъчен кредит", r.PurchasesNoCreditBase)
	cell("31", "С право на пълен данъчен кредит", r.PurchasesFullCreditBase)
	cell("41", "ДДС с пълен кредит", r.PurchasesFullCreditVat)
	cell("32", "С право на частичен кредит", r.PurchasesPartialCreditBase)
	cell("42", "ДДС с частичен кредит", r.PurchasesPartialCreditVat)
	cell("43", "Годишна корекция", r.AnnualAdjustment)
	fmt.Println()
	fmt.Printf("Данъчен кредит:   %s\n", r.DeductibleVat().StringFixed(2))
	fmt.Printf("ДДС за внасяне:   %s\n", r.VatToPay().StringFixed(2))
	fmt.Printf("ДДС за възстановяване: %s\n", r.VatToRefund().StringFixed(2))
}

func init() {
	for _, c := range []*cobra.Command{vatGetCmd, vatRecomputeCmd, vatSubmitCmd, vatApproveCmd, vatExportCmd} {
		c.Flags().IntVar(&vatYear, "year", 0, "Period year")
		c.Flags().IntVar(&vatMonth, "month", 0, "Period month (1-12)")
		c.MarkFlagRequired("year")
		c.MarkFlagRequired("month")
	}
	vatExportCmd.Flags().StringVar(&vatExportDir, "out", ".", "Output directory")

	vatCmd.AddCommand(vatListCmd)
	vatCmd.AddCommand(vatGetCmd)
	vatCmd.AddCommand(vatRecomputeCmd)
	vatCmd.AddCommand(vatSubmitCmd)
	vatCmd.AddCommand(vatApproveCmd)
	vatCmd.AddCommand(vatExportCmd)

	rootCmd.AddCommand(vatCmd)
}
