package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Inventory balances and average-cost corrections",
}

var inventoryBalancesCmd = &cobra.Command{
	Use:   "balances",
	Short: "List inventory balances",
	RunE: func(cmd *cobra.Command, args []string) error {
		balances, err := apiClient().ListBalances(context.Background(), companyID())
		if err != nil {
			return err
		}
		if len(balances) == 0 {
			fmt.Println("No inventory balances.")
			return nil
		}
		fmt.Printf("%-10s %12s %14s %14s\n", "ACCOUNT", "QUANTITY", "AMOUNT", "AVG COST")
		for _, b := range balances {
			fmt.Printf("%-10d %12s %14s %14s\n",
				b.AccountID, b.Quantity.String(), b.TotalAmount.StringFixed(2), b.AverageCost.String())
		}
		return nil
	},
}

var inventoryAccountID int64

var inventoryMovementsCmd = &cobra.Command{
	Use:   "movements",
	Short: "List movements for a material account",
	RunE: func(cmd *cobra.Command, args []string) error {
		movements, err := apiClient().ListMovements(context.Background(), companyID(), inventoryAccountID)
		if err != nil {
			return err
		}
		if len(movements) == 0 {
			fmt.Println("No movements.")
			return nil
		}
		fmt.Printf("%-6s %-12s %-8s %12s %12s %14s\n", "ID", "DATE", "TYPE", "QTY", "AMOUNT", "AVG COST")
		for _, m := range movements {
			fmt.Printf("%-6d %-12s %-8s %12s %12s %14s\n",
				m.ID, m.MovementDate.Format("2006-01-02"), m.MovementType,
				m.Quantity.String(), m.TotalAmount.StringFixed(2), m.AverageCostAtTime.String())
		}
		return nil
	},
}

var inventoryAsOf string

var inventoryAvgCostCmd = &cobra.Command{
	Use:   "average-cost",
	Short: "Show the moving average cost of a material account",
	RunE: func(cmd *cobra.Command, args []string) error {
		avg, err := apiClient().AverageCost(context.Background(), companyID(), inventoryAccountID, inventoryAsOf)
		if err != nil {
			return err
		}
		fmt.Printf("Average cost: %s\n", avg.String())
		return nil
	},
}

var correctionsPlanCmd = &cobra.Command{
	Use:   "plan-corrections",
	Short: "Preview average-cost corrections after a back-dated receipt",
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := apiClient().PlanCorrections(context.Background(), companyID(), inventoryAccountID)
		if err != nil {
			return err
		}
		if len(plan) == 0 {
			fmt.Println("Stored valuations match a full replay; nothing to correct.")
			return nil
		}
		fmt.Printf("%-10s %-12s %12s %14s %14s %12s\n", "MOVEMENT", "DATE", "QTY", "OLD AVG", "NEW AVG", "ADJUSTMENT")
		for _, c := range plan {
			fmt.Printf("%-10d %-12s %12s %14s %14s %12s\n",
				c.MovementID, c.MovementDate.Format("2006-01-02"), c.Quantity.String(),
				c.OldAverageCost.String(), c.NewAverageCost.String(), c.CorrectionAmount.StringFixed(2))
		}
		return nil
	},
}

var (
	correctionsTrigger int64
	correctionsDate    string
)

var correctionsApplyCmd = &cobra.Command{
	Use:   "apply-corrections",
	Short: "Post a compensating entry for planned corrections",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := apiClient()
		plan, err := c.PlanCorrections(context.Background(), companyID(), inventoryAccountID)
		if err != nil {
			return err
		}
		if len(plan) == 0 {
			fmt.Println("Nothing to correct.")
			return nil
		}
		entry, err := c.ApplyCorrections(context.Background(), companyID(), inventoryAccountID, correctionsTrigger, plan, correctionsDate)
		if err != nil {
			return err
		}
		fmt.Printf("Correction entry posted: %s (%s), %d issues revalued\n",
			entry.ID, entry.EntryNumber, len(plan))
		return nil
	},
}

var (
	turnoverFrom string
	turnoverTo   string
)

var turnoverCmd = &cobra.Command{
	Use:   "turnover",
	Short: "Inventory turnover report for a period",
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := apiClient().TurnoverReport(context.Background(), companyID(), turnoverFrom, turnoverTo)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Println("No inventory activity in the period.")
			return nil
		}
		fmt.Printf("%-8s %-25s %10s %10s %10s %10s\n", "CODE", "NAME", "OPENING", "RECEIVED", "ISSUED", "CLOSING")
		for _, r := range rows {
			name := r.AccountName
			if len([]rune(name)) > 23 {
				name = string([]rune(name)[:23]) + ".."
			}
			fmt.Printf("%-8s %-25s %10s %10s %10s %10s\n", r.AccountCode, name,
				r.OpeningAmount.StringFixed(2), r.ReceivedAmt.StringFixed(2),
				r.IssuedAmt.StringFixed(2), r.ClosingAmount.StringFixed(2))
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{inventoryMovementsCmd, inventoryAvgCostCmd, correctionsPlanCmd, correctionsApplyCmd} {
		c.Flags().Int64Var(&inventoryAccountID, "account", 0, "Material account id")
		c.MarkFlagRequired("account")
	}
	inventoryAvgCostCmd.Flags().StringVar(&inventoryAsOf, "as-of", "", "Valuation date (YYYY-MM-DD)")
	correctionsApplyCmd.Flags().Int64Var(&correctionsTrigger, "movement", 0, "Back-dated receipt movement id")
	correctionsApplyCmd.Flags().StringVar(&correctionsDate, "date", "", "Accounting date of the correction entry (default today)")
	correctionsApplyCmd.MarkFlagRequired("movement")

	turnoverCmd.Flags().StringVar(&turnoverFrom, "from", "", "Period start (YYYY-MM-DD)")
	turnoverCmd.Flags().StringVar(&turnoverTo, "to", "", "Period end (YYYY-MM-DD)")
	turnoverCmd.MarkFlagRequired("from")
	turnoverCmd.MarkFlagRequired("to")

	inventoryCmd.AddCommand(inventoryBalancesCmd)
	inventoryCmd.AddCommand(inventoryMovementsCmd)
	inventoryCmd.AddCommand(inventoryAvgCostCmd)
	inventoryCmd.AddCommand(correctionsPlanCmd)
	inventoryCmd.AddCommand(correctionsApplyCmd)
	inventoryCmd.AddCommand(turnoverCmd)

	rootCmd.AddCommand(inventoryCmd)
}
