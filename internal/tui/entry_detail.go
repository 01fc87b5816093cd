package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vankov/bgledger/internal/client"
	"github.com/vankov/bgledger/internal/ledger"
)

type entryDetailLoadedMsg struct {
	entry *ledger.EntryWithLines
	err   error
}

type entryDetailModel struct {
	entry   *ledger.EntryWithLines
	loading bool
	err     error
	width   int
}

func (m *entryDetailModel) init(c *client.Client, id string) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		entry, err := c.GetEntry(context.Background(), id)
		return entryDetailLoadedMsg{entry: entry, err: err}
	}
}

func (m entryDetailModel) update(msg tea.Msg) (entryDetailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case entryDetailLoadedMsg:
		m.loading = false
		m.entry = msg.entry
		m.err = msg.err
	}
	return m, nil
}

func (m *entryDetailModel) view() string {
	if m.loading {
		return "Loading entry..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.entry == nil {
		return ""
	}
	e := m.entry

	var b strings.Builder
	status := "draft"
	if e.IsPosted {
		status = "posted " + e.EntryNumber
	}
	b.WriteString(titleStyle.Render(fmt.Sprintf("Entry %s (%s)", e.ID, status)))
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Description:"), e.Description))
	b.WriteString(fmt.Sprintf("%s %s № %s\n", labelStyle.Render("Document:"),
		e.DocumentDate.Format("2006-01-02"), e.DocumentNumber))
	if e.VatDate != nil {
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("VAT date:"), e.VatDate.Format("2006-01-02")))
	}
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Accounting:"), e.AccountingDate.Format("2006-01-02")))
	if e.VatDocumentType != "" {
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Doc type:"), e.VatDocumentType))
	}
	b.WriteString("\n")

	header := fmt.Sprintf("  %-4s %-10s %14s %14s %10s", "TYPE", "ACCOUNT", "DEBIT", "CREDIT", "QTY")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	for _, l := range e.Lines {
		qty := ""
		if l.Quantity != nil {
			qty = l.Quantity.String()
		}
		if l.IsDebit() {
			line := fmt.Sprintf("  %-4s %-10d %14s %14s %10s", "DR", l.AccountID, l.DebitAmount.StringFixed(2), "", qty)
			b.WriteString(debitStyle.Render(line))
		} else {
			line := fmt.Sprintf("  %-4s %-10d %14s %14s %10s", "CR", l.AccountID, "", l.CreditAmount.StringFixed(2), qty)
			b.WriteString(creditStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("\n%s %s (VAT %s)\n", labelStyle.Render("Total:"),
		e.TotalAmount.StringFixed(2), e.TotalVatAmount.StringFixed(2)))
	b.WriteString("\n" + dimStyle.Render("  Press ESC to go back"))
	return b.String()
}
