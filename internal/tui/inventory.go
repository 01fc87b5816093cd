package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vankov/bgledger/internal/client"
	"github.com/vankov/bgledger/internal/ledger"
)

type balancesLoadedMsg struct {
	balances []ledger.InventoryBalance
	err      error
}

type inventoryModel struct {
	companyID int64
	balances  []ledger.InventoryBalance
	cursor    int
	loading   bool
	err       error
	width     int
	height    int
}

func (m *inventoryModel) init(c *client.Client) tea.Cmd {
	m.loading = true
	companyID := m.companyID
	return func() tea.Msg {
		balances, err := c.ListBalances(context.Background(), companyID)
		return balancesLoadedMsg{balances: balances, err: err}
	}
}

func (m inventoryModel) update(msg tea.Msg) (inventoryModel, tea.Cmd) {
	switch msg := msg.(type) {
	case balancesLoadedMsg:
		m.loading = false
		m.balances = msg.balances
		m.err = msg.err

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.balances)-1 {
				m.cursor++
			}
		}
	}
	return m, nil
}

func (m *inventoryModel) view() string {
	if m.loading {
		return "Loading inventory..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if len(m.balances) == 0 {
		return dimStyle.Render("No inventory balances.")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Inventory"))
	b.WriteString("\n")

	header := fmt.Sprintf("  %-10s %12s %-6s %14s %14s", "ACCOUNT", "QUANTITY", "UNIT", "AMOUNT", "AVG COST")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	for i, bal := range m.balances {
		line := fmt.Sprintf("  %-10d %12s %-6s %14s %14s",
			bal.AccountID, bal.Quantity.String(), bal.Unit,
			bal.TotalAmount.StringFixed(2), bal.AverageCost.String())
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line[2:]))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("\n  %d material accounts", len(m.balances)))
	return b.String()
}
