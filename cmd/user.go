package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vankov/bgledger/internal/client"
	"github.com/vankov/bgledger/internal/ledger"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage operators and their input windows",
}

var (
	userName     string
	userEmail    string
	userCanPost  bool
	userDocFrom  string
	userDocTo    string
	userAccFrom  string
	userAccTo    string
	userVatFrom  string
	userVatTo    string
)

func windowFlags(from, to string) client.PeriodWindowRequest {
	return client.PeriodWindowRequest{Start: from, End: to, Active: from != "" && to != ""}
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an operator with three input windows",
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := apiClient().CreateUser(context.Background(), &client.UserRequest{
			Username:         userName,
			Email:            userEmail,
			CanPostEntries:   userCanPost,
			DocumentPeriod:   windowFlags(userDocFrom, userDocTo),
			AccountingPeriod: windowFlags(userAccFrom, userAccTo),
			VatPeriod:        windowFlags(userVatFrom, userVatTo),
		})
		if err != nil {
			return err
		}
		fmt.Printf("User created: %d %s\n", u.ID, u.Username)
		return nil
	},
}

var userGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the acting user's windows and permissions",
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := apiClient().GetUser(context.Background(), actingUserID())
		if err != nil {
			return err
		}
		fmt.Printf("ID:       %d\n", u.ID)
		fmt.Printf("Username: %s\n", u.Username)
		fmt.Printf("Active:   %v\n", u.IsActive)
		fmt.Printf("Can post: %v\n", u.CanPostEntries)
		printWindow := func(label string, w ledger.PeriodWindow) {
			if !w.Active {
				fmt.Printf("%s closed\n", label)
				return
			}
			fmt.Printf("%s %s - %s\n", label, w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"))
		}
		printWindow("Document window:  ", u.DocumentPeriod)
		printWindow("Accounting window:", u.AccountingPeriod)
		printWindow("VAT window:       ", u.VatPeriod)
		return nil
	},
}

var userSetPeriodsCmd = &cobra.Command{
	Use:   "set-periods",
	Short: "Replace the acting user's three input windows",
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := apiClient().UpdateUserPeriods(context.Background(), actingUserID(),
			windowFlags(userDocFrom, userDocTo),
			windowFlags(userAccFrom, userAccTo),
			windowFlags(userVatFrom, userVatTo))
		if err != nil {
			return err
		}
		fmt.Printf("Windows updated for %s\n", u.Username)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{userCreateCmd, userSetPeriodsCmd} {
		c.Flags().StringVar(&userDocFrom, "doc-from", "", "Document window start (YYYY-MM-DD)")
		c.Flags().StringVar(&userDocTo, "doc-to", "", "Document window end")
		c.Flags().StringVar(&userAccFrom, "acc-from", "", "Accounting window start")
		c.Flags().StringVar(&userAccTo, "acc-to", "", "Accounting window end")
		c.Flags().StringVar(&userVatFrom, "vat-from", "", "VAT window start")
		c.Flags().StringVar(&userVatTo, "vat-to", "", "VAT window end")
	}
	userCreateCmd.Flags().StringVar(&userName, "username", "", "Username")
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "Email")
	userCreateCmd.Flags().BoolVar(&userCanPost, "can-post", false, "Allow posting entries")
	userCreateCmd.MarkFlagRequired("username")

	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userGetCmd)
	userCmd.AddCommand(userSetPeriodsCmd)

	rootCmd.AddCommand(userCmd)
}
