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

type entriesLoadedMsg struct {
	entries []ledger.EntryWithLines
	err     error
}

type entryPostedMsg struct {
	entry *ledger.EntryWithLines
	err   error
}

type entryListModel struct {
	companyID int64
	entries   []ledger.EntryWithLines
	cursor    int
	loading   bool
	err       error
	width     int
	height    int
}

func (m *entryListModel) init(c *client.Client) tea.Cmd {
	m.loading = true
	companyID := m.companyID
	return func() tea.Msg {
		entries, err := c.ListEntries(context.Background(), companyID, nil, "", "")
		return entriesLoadedMsg{entries: entries, err: err}
	}
}

func (m entryListModel) update(msg tea.Msg) (entryListModel, tea.Cmd) {
	switch msg := msg.(type) {
	case entriesLoadedMsg:
		m.loading = false
		m.entries = msg.entries
		m.err = msg.err
		if m.cursor >= len(m.entries) {
			m.cursor = 0
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.entries)-1 {
				m.cursor++
			}
		}
	}
	return m, nil
}

func (m *entryListModel) selected() *ledger.EntryWithLines {
	if m.cursor >= 0 && m.cursor < len(m.entries) {
		return &m.entries[m.cursor]
	}
	return nil
}

func (m *entryListModel) view() string {
	if m.loading {
		return "Loading entries..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if len(m.entries) == 0 {
		return dimStyle.Render("No journal entries.")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Journal Entries"))
	b.WriteString("\n")

	header := fmt.Sprintf("  %-12s %-12s %12s %10s %s", "NUMBER", "DATE", "AMOUNT", "VAT", "DESCRIPTION")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	maxRows := m.height - 4
	if maxRows < 1 {
		maxRows = 10
	}
	start := 0
	if m.cursor >= maxRows {
		start = m.cursor - maxRows + 1
	}

	for i := start; i < len(m.entries) && i < start+maxRows; i++ {
		e := m.entries[i]
		num := e.EntryNumber
		if num == "" {
			num = "(draft)"
		}
		desc := e.Description
		if len([]rune(desc)) > 34 {
			desc = string([]rune(desc)[:32]) + ".."
		}
		line := fmt.Sprintf("  %-12s %-12s %12s %10s %s",
			num, e.AccountingDate.Format("2006-01-02"),
			e.TotalAmount.StringFixed(2), e.TotalVatAmount.StringFixed(2), desc)
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line[2:]))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("\n  %d entries", len(m.entries)))
	return b.String()
}
