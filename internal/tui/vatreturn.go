package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/vankov/bgledger/internal/client"
	"github.com/vankov/bgledger/internal/ledger"
)

type vatReturnsLoadedMsg struct {
	returns []ledger.VatReturn
	err     error
}

type vatReturnModel struct {
	companyID int64
	returns   []ledger.VatReturn
	cursor    int
	loading   bool
	err       error
	width     int
	height    int
}

func (m *vatReturnModel) init(c *client.Client) tea.Cmd {
	m.loading = true
	companyID := m.companyID
	return func() tea.Msg {
		returns, err := c.ListVatReturns(context.Background(), companyID)
		return vatReturnsLoadedMsg{returns: returns, err: err}
	}
}

func (m vatReturnModel) update(msg tea.Msg) (vatReturnModel, tea.Cmd) {
	switch msg := msg.(type) {
	case vatReturnsLoadedMsg:
		m.loading = false
		m.returns = msg.returns
		m.err = msg.err
		if m.cursor >= len(m.returns) {
			m.cursor = 0
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.returns)-1 {
				m.cursor++
			}
		}
	}
	return m, nil
}

func (m *vatReturnModel) view() string {
	if m.loading {
		return "Loading VAT returns..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if len(m.returns) == 0 {
		return dimStyle.Render("No VAT returns.")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("VAT Returns"))
	b.WriteString("\n")

	header := fmt.Sprintf("  %-8s %-10s %12s %12s %12s %12s", "PERIOD", "STATUS", "SALES BASE", "OUTPUT VAT", "DEDUCTIBLE", "TO PAY")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	for i := range m.returns {
		r := &m.returns[i]
		line := fmt.Sprintf("  %-8s %-10s %12s %12s %12s %12s",
			r.PeriodLabel(), r.Status,
			r.TotalSalesBase().StringFixed(2), r.TotalOutputVat().StringFixed(2),
			r.DeductibleVat().StringFixed(2), r.VatToPay().StringFixed(2))
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line[2:]))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}

	if r := m.selected(); r != nil {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render("  Declaration " + r.PeriodLabel()))
		b.WriteString("\n")
		cell := func(no string, v decimal.Decimal) {
			if v.IsZero() {
				return
			}
			b.WriteString(fmt.Sprintf("  [01-%s] %14s\n", no, v.StringFixed(2)))
		}
		cell("11", r.SalesBase20)
		cell("21", r.SalesVat20)
		cell("12", r.IcaBase)
		cell("22", r.IcaVat)
		cell("23", r.PersonalUseVat)
		cell("13", r.SalesBase9)
		cell("24", r.SalesVat9)
		cell("14", r.SalesBase0Chapter3)
		cell("15", r.IcdBase)
		cell("16", r.ExportBase)
		cell("17", r.Art21ServicesBase)
		cell("18", r.Art69SuppliesBase)
		cell("19", r.ExemptBase)
		cell("30", r.PurchasesNoCreditBase)
		cell("31", r.PurchasesFullCreditBase)
		cell("41", r.PurchasesFullCreditVat)
		cell("32", r.PurchasesPartialCreditBase)
		cell("42", r.PurchasesPartialCreditVat)
		cell("43", r.AnnualAdjustment)
		b.WriteString(fmt.Sprintf("  %d sales / %d purchase documents\n",
			r.SalesDocumentCount, r.PurchaseDocumentCount))
	}
	return b.String()
}

func (m *vatReturnModel) selected() *ledger.VatReturn {
	if m.cursor >= 0 && m.cursor < len(m.returns) {
		return &m.returns[m.cursor]
	}
	return nil
}
