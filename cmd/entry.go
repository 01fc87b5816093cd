package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/vankov/bgledger/internal/client"
	"github.com/vankov/bgledger/internal/ledger"
)

var entryCmd = &cobra.Command{
	Use:   "entry",
	Short: "Manage journal entries",
}

var (
	entryDocDate   string
	entryVatDate   string
	entryAccDate   string
	entryDocNumber string
	entryDesc      string
	entryDocType   string
	entryPurchOp   string
	entrySalesOp   string
	entryLines     []string // code:debit:credit[:base:vat:rate[:qty]]
)

// parseEntryLine parses one --line flag. The format mirrors the posting
// form: account code, debit, credit, then optional base, VAT, rate and
// quantity.
func parseEntryLine(raw string) (client.EntryLineRequest, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 3 {
		return client.EntryLineRequest{}, fmt.Errorf("invalid line %q, expected code:debit:credit[:base:vat:rate[:qty]]", raw)
	}
	line := client.EntryLineRequest{AccountCode: parts[0]}

	dec := func(s string) (decimal.Decimal, error) {
		if s == "" {
			return decimal.Zero, nil
		}
		return decimal.NewFromString(s)
	}
	var err error
	if line.DebitAmount, err = dec(parts[1]); err != nil {
		return line, fmt.Errorf("invalid debit in %q: %w", raw, err)
	}
	if line.CreditAmount, err = dec(parts[2]); err != nil {
		return line, fmt.Errorf("invalid credit in %q: %w", raw, err)
	}
	if len(parts) > 3 {
		if line.BaseAmount, err = dec(parts[3]); err != nil {
			return line, fmt.Errorf("invalid base in %q: %w", raw, err)
		}
	}
	if len(parts) > 4 {
		if line.VatAmount, err = dec(parts[4]); err != nil {
			return line, fmt.Errorf("invalid vat in %q: %w", raw, err)
		}
	}
	if len(parts) > 5 && parts[5] != "" {
		rate, err := decimal.NewFromString(parts[5])
		if err != nil {
			return line, fmt.Errorf("invalid rate in %q: %w", raw, err)
		}
		line.VatRate = &rate
	}
	if len(parts) > 6 && parts[6] != "" {
		qty, err := decimal.NewFromString(parts[6])
		if err != nil {
			return line, fmt.Errorf("invalid quantity in %q: %w", raw, err)
		}
		line.Quantity = &qty
	}
	return line, nil
}

var entryCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a draft journal entry",
	Long: "Create a draft entry. Each --line is formatted as\n" +
		"\"code:debit:credit[:base:vat:rate[:qty]]\" (e.g. \"411:120:0\" or \"701:0:100:100:20:20\").",
	RunE: func(cmd *cobra.Command, args []string) error {
		req := &client.EntryRequest{
			DocumentDate:         entryDocDate,
			VatDate:              entryVatDate,
			AccountingDate:       entryAccDate,
			DocumentNumber:       entryDocNumber,
			Description:          entryDesc,
			VatDocumentType:      entryDocType,
			VatPurchaseOperation: entryPurchOp,
			VatSalesOperation:    entrySalesOp,
		}
		for _, raw := range entryLines {
			line, err := parseEntryLine(raw)
			if err != nil {
				return err
			}
			req.Lines = append(req.Lines, line)
		}

		created, err := apiClient().CreateEntry(context.Background(), companyID(), req)
		if err != nil {
			return err
		}
		fmt.Printf("Draft created: %s\n", created.ID)
		printEntry(created)
		return nil
	},
}

var (
	entryListPosted string
	entryListFrom   string
	entryListTo     string
)

var entryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List journal entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		var posted *bool
		switch entryListPosted {
		case "true":
			v := true
			posted = &v
		case "false":
			v := false
			posted = &v
		}
		entries, err := apiClient().ListEntries(context.Background(), companyID(), posted, entryListFrom, entryListTo)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No entries found.")
			return nil
		}
		fmt.Printf("%-38s %-12s %-12s %10s %s\n", "ID", "NUMBER", "DATE", "AMOUNT", "DESCRIPTION")
		for _, e := range entries {
			num := e.EntryNumber
			if num == "" {
				num = "(draft)"
			}
			desc := e.Description
			if len([]rune(desc)) > 40 {
				desc = string([]rune(desc)[:38]) + ".."
			}
			fmt.Printf("%-38s %-12s %-12s %10s %s\n",
				e.ID, num, e.AccountingDate.Format("2006-01-02"), e.TotalAmount.StringFixed(2), desc)
		}
		return nil
	},
}

var entryGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show entry details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := apiClient().GetEntry(context.Background(), args[0])
		if err != nil {
			return err
		}
		printEntry(e)
		return nil
	},
}

var entryPostCmd = &cobra.Command{
	Use:   "post [id]",
	Short: "Post a draft entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := apiClient().PostEntry(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Posted as %s\n", e.EntryNumber)
		return nil
	},
}

var (
	entryReverseDate   string
	entryReverseReason string
)

var entryReverseCmd = &cobra.Command{
	Use:   "reverse [id]",
	Short: "Post a storno entry mirroring a posted one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rev, err := apiClient().ReverseEntry(context.Background(), args[0], entryReverseDate, entryReverseReason)
		if err != nil {
			return err
		}
		fmt.Printf("Reversal posted: %s (%s)\n", rev.ID, rev.EntryNumber)
		return nil
	},
}

var entryDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a draft entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := apiClient().DeleteEntry(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Println("Draft deleted.")
		return nil
	},
}

func printEntry(e *ledger.EntryWithLines) {
	status := "draft"
	if e.IsPosted {
		status = "posted " + e.EntryNumber
	}
	fmt.Printf("Entry:       %s (%s)\n", e.ID, status)
	fmt.Printf("Description: %s\n", e.Description)
	fmt.Printf("Document:    %s от %s\n", e.DocumentNumber, e.DocumentDate.Format("2006-01-02"))
	if e.VatDate != nil {
		fmt.Printf("VAT date:    %s\n", e.VatDate.Format("2006-01-02"))
	}
	fmt.Printf("Accounting:  %s\n", e.AccountingDate.Format("2006-01-02"))
	fmt.Printf("Lines:\n")
	for _, l := range e.Lines {
		side := "DR"
		amt := l.DebitAmount
		if l.CreditAmount.IsPositive() {
			side = "CR"
			amt = l.CreditAmount
		}
		qty := ""
		if l.Quantity != nil {
			qty = fmt.Sprintf("  qty %s %s", l.Quantity.String(), l.Unit)
		}
		fmt.Printf("  %s %-8d %12s%s\n", side, l.AccountID, amt.StringFixed(2), qty)
	}
	fmt.Printf("Total:       %s (VAT %s)\n", e.TotalAmount.StringFixed(2), e.TotalVatAmount.StringFixed(2))
}

func init() {
	entryCreateCmd.Flags().StringVar(&entryDocDate, "document-date", "", "Document date (YYYY-MM-DD)")
	entryCreateCmd.Flags().StringVar(&entryVatDate, "vat-date", "", "VAT date (YYYY-MM-DD)")
	entryCreateCmd.Flags().StringVar(&entryAccDate, "accounting-date", "", "Accounting date (YYYY-MM-DD)")
	entryCreateCmd.Flags().StringVar(&entryDocNumber, "document-number", "", "Source document number")
	entryCreateCmd.Flags().StringVar(&entryDesc, "description", "", "Entry description")
	entryCreateCmd.Flags().StringVar(&entryDocType, "doc-type", "", "VAT document type (01, 02, 03, ...)")
	entryCreateCmd.Flags().StringVar(&entryPurchOp, "purchase-op", "", "Purchase operation code (пок09, пок10, ...)")
	entryCreateCmd.Flags().StringVar(&entrySalesOp, "sales-op", "", "Sales operation code")
	entryCreateCmd.Flags().StringSliceVar(&entryLines, "line", nil, "Line as code:debit:credit[:base:vat:rate[:qty]] (repeatable)")
	entryCreateCmd.MarkFlagRequired("document-date")
	entryCreateCmd.MarkFlagRequired("accounting-date")
	entryCreateCmd.MarkFlagRequired("description")
	entryCreateCmd.MarkFlagRequired("line")

	entryListCmd.Flags().StringVar(&entryListPosted, "posted", "", "Filter by posted state (true or false)")
	entryListCmd.Flags().StringVar(&entryListFrom, "from", "", "Accounting date lower bound")
	entryListCmd.Flags().StringVar(&entryListTo, "to", "", "Accounting date upper bound")

	entryReverseCmd.Flags().StringVar(&entryReverseDate, "date", "", "Reversal date (YYYY-MM-DD)")
	entryReverseCmd.Flags().StringVar(&entryReverseReason, "reason", "", "Reversal reason (defaults to the original description)")
	entryReverseCmd.MarkFlagRequired("date")

	entryCmd.AddCommand(entryCreateCmd)
	entryCmd.AddCommand(entryListCmd)
	entryCmd.AddCommand(entryGetCmd)
	entryCmd.AddCommand(entryPostCmd)
	entryCmd.AddCommand(entryReverseCmd)
	entryCmd.AddCommand(entryDeleteCmd)

	rootCmd.AddCommand(entryCmd)
}
