// Package tui is a read-mostly terminal front end over the HTTP API:
// journal entries, inventory balances and the monthly VAT returns, with
// posting of drafts from the entry list.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vankov/bgledger/internal/client"
)

type mode int

const (
	modeEntryList mode = iota
	modeEntryDetail
	modeInventory
	modeVatReturns
)

var tabModes = []mode{modeEntryList, modeInventory, modeVatReturns}

func tabLabel(m mode) string {
	switch m {
	case modeEntryList:
		return "Entries"
	case modeInventory:
		return "Inventory"
	case modeVatReturns:
		return "VAT Returns"
	default:
		return ""
	}
}

type App struct {
	client        *client.Client
	mode          mode
	tabIndex      int
	width, height int
	statusMsg     string

	entryList   entryListModel
	entryDetail entryDetailModel
	inventory   inventoryModel
	vatReturns  vatReturnModel
}

func NewApp(c *client.Client, companyID int64) *App {
	app := &App{
		client: c,
		mode:   modeEntryList,
	}
	app.entryList.companyID = companyID
	app.inventory.companyID = companyID
	app.vatReturns.companyID = companyID
	return app
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.entryList.init(a.client),
		a.inventory.init(a.client),
		a.vatReturns.init(a.client),
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.entryList.width = msg.Width
		a.entryList.height = msg.Height - 6
		a.inventory.width = msg.Width
		a.inventory.height = msg.Height - 6
		a.vatReturns.width = msg.Width
		a.vatReturns.height = msg.Height - 6
		a.entryDetail.width = msg.Width
		return a, nil
	}

	// Loaded messages route to their model regardless of the active tab,
	// since Init fires all loads concurrently.
	switch typed := msg.(type) {
	case entriesLoadedMsg:
		var cmd tea.Cmd
		a.entryList, cmd = a.entryList.update(msg)
		return a, cmd
	case balancesLoadedMsg:
		var cmd tea.Cmd
		a.inventory, cmd = a.inventory.update(msg)
		return a, cmd
	case vatReturnsLoadedMsg:
		var cmd tea.Cmd
		a.vatReturns, cmd = a.vatReturns.update(msg)
		return a, cmd
	case entryDetailLoadedMsg:
		var cmd tea.Cmd
		a.entryDetail, cmd = a.entryDetail.update(msg)
		return a, cmd
	case entryPostedMsg:
		if typed.err != nil {
			a.statusMsg = ""
			a.entryList.err = typed.err
			return a, nil
		}
		a.statusMsg = "Posted as " + typed.entry.EntryNumber
		return a, tea.Batch(
			a.entryList.init(a.client),
			a.inventory.init(a.client),
			a.vatReturns.init(a.client),
		)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit

		case key.Matches(msg, keys.Tab):
			a.tabIndex = (a.tabIndex + 1) % len(tabModes)
			a.mode = tabModes[a.tabIndex]
			a.statusMsg = ""
			return a, a.refreshTab()

		case key.Matches(msg, keys.ShiftTab):
			a.tabIndex = (a.tabIndex - 1 + len(tabModes)) % len(tabModes)
			a.mode = tabModes[a.tabIndex]
			a.statusMsg = ""
			return a, a.refreshTab()

		case key.Matches(msg, keys.Escape):
			if a.mode == modeEntryDetail {
				a.mode = modeEntryList
			}
			return a, nil

		case key.Matches(msg, keys.Refresh):
			return a, a.refreshTab()

		case key.Matches(msg, keys.Post):
			if a.mode == modeEntryList {
				if e := a.entryList.selected(); e != nil && !e.IsPosted {
					id := e.ID
					return a, func() tea.Msg {
						posted, err := a.client.PostEntry(context.Background(), id)
						return entryPostedMsg{entry: posted, err: err}
					}
				}
			}

		case key.Matches(msg, keys.Enter):
			if a.mode == modeEntryList {
				if e := a.entryList.selected(); e != nil {
					a.mode = modeEntryDetail
					return a, a.entryDetail.init(a.client, e.ID)
				}
				return a, nil
			}
		}
	}

	var cmd tea.Cmd
	switch a.mode {
	case modeEntryList:
		a.entryList, cmd = a.entryList.update(msg)
	case modeEntryDetail:
		a.entryDetail, cmd = a.entryDetail.update(msg)
	case modeInventory:
		a.inventory, cmd = a.inventory.update(msg)
	case modeVatReturns:
		a.vatReturns, cmd = a.vatReturns.update(msg)
	}
	return a, cmd
}

func (a *App) refreshTab() tea.Cmd {
	switch a.mode {
	case modeEntryList:
		return a.entryList.init(a.client)
	case modeInventory:
		return a.inventory.init(a.client)
	case modeVatReturns:
		return a.vatReturns.init(a.client)
	}
	return nil
}

func (a *App) View() string {
	tabs := ""
	for i, m := range tabModes {
		label := tabLabel(m)
		if i == a.tabIndex {
			tabs += activeTabStyle.Render(label)
		} else {
			tabs += inactiveTabStyle.Render(label)
		}
		if i < len(tabModes)-1 {
			tabs += " "
		}
	}

	var content string
	switch a.mode {
	case modeEntryList:
		content = a.entryList.view()
	case modeEntryDetail:
		content = a.entryDetail.view()
	case modeInventory:
		content = a.inventory.view()
	case modeVatReturns:
		content = a.vatReturns.view()
	}

	status := ""
	if a.statusMsg != "" {
		status = successStyle.Render(a.statusMsg)
	}

	helpText := dimStyle.Render("tab:switch  enter:detail  esc:back  p:post draft  r:refresh  q:quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		tabs,
		"",
		content,
		"",
		status,
		helpText,
	)
}
