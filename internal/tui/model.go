// Package tui is the terminal front-end of the inventory: a searchable,
// category-grouped product list for the inventory and shopping pages.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"inventory-service/internal/client"
	"inventory-service/internal/domain"
	"inventory-service/internal/view"
)

const requestTimeout = 15 * time.Second

// row is one selectable line of the current page.
type row struct {
	product *domain.Product
	section string
}

// Model is the bubbletea model driving a client.Board.
type Model struct {
	board  *client.Board
	search textinput.Model
	page   domain.PageType
	rows   []row
	cursor int
	status string
	err    error
	width  int
}

// New creates a model for board opened on page.
func New(board *client.Board, page domain.PageType) Model {
	ti := textinput.New()
	ti.Placeholder = "Rechercher un produit"
	ti.Prompt = "/ "
	ti.CharLimit = 64
	ti.Cursor.SetMode(cursor.CursorStatic)

	if page != domain.PageShopping {
		page = domain.PageInventory
	}
	m := Model{board: board, search: ti, page: page}
	m.rebuild()
	return m
}

// Messages
type refreshedMsg struct{ err error }

type mutatedMsg struct {
	status string
	err    error
}

// Commands
func refreshCmd(board *client.Board) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return refreshedMsg{err: board.Refresh(ctx)}
	}
}

func mutateCmd(status string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return mutatedMsg{status: status, err: fn(ctx)}
	}
}

// Init loads the board.
func (m Model) Init() tea.Cmd {
	return refreshCmd(m.board)
}

func (m Model) currentView() view.View {
	return m.board.View(m.search.Value(), m.page)
}

// rebuild recomputes the selectable rows and clamps the cursor.
func (m *Model) rebuild() {
	v := m.currentView()
	m.rows = nil
	for _, g := range v.Groups {
		for _, p := range g.Products {
			m.rows = append(m.rows, row{product: p, section: g.Category})
		}
	}
	for _, p := range v.InCart {
		m.rows = append(m.rows, row{product: p, section: "Dans le panier"})
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) selected() (*domain.Product, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil, false
	}
	return m.rows[m.cursor].product, true
}

// toggleKind is the flag space flips on the current page.
func (m Model) toggleKind() domain.ToggleKind {
	if m.page == domain.PageShopping {
		return domain.ToggleInCart
	}
	return domain.ToggleToBuy
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case refreshedMsg:
		m.err = msg.err
		m.rebuild()
		return m, nil

	case mutatedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.status = ""
		} else {
			m.err = nil
			m.status = msg.status
		}
		m.rebuild()
		return m, nil

	case tea.KeyMsg:
		if m.search.Focused() {
			return m.updateSearch(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "enter":
		m.search.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.rebuild()
	return m, cmd
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc", "q":
		return m, tea.Quit

	case "/":
		cmd := m.search.Focus()
		return m, cmd

	case "tab":
		if m.page == domain.PageShopping {
			m.page = domain.PageInventory
		} else {
			m.page = domain.PageShopping
		}
		m.cursor = 0
		m.rebuild()
		return m, nil

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
		return m, nil

	case " ", "enter":
		p, ok := m.selected()
		if !ok {
			return m, nil
		}
		board, id, kind := m.board, p.ID, m.toggleKind()
		return m, mutateCmd("Produit mis à jour.", func(ctx context.Context) error {
			return board.Toggle(ctx, id, kind)
		})

	case "ctrl+d":
		p, ok := m.selected()
		if !ok {
			return m, nil
		}
		board, id := m.board, p.ID
		return m, mutateCmd("Produit supprimé avec succès.", func(ctx context.Context) error {
			return board.Delete(ctx, id)
		})

	case "ctrl+x":
		if m.page != domain.PageShopping {
			return m, nil
		}
		ids := m.board.CartIDs(m.search.Value())
		if len(ids) == 0 {
			m.status = "Le panier est vide."
			return m, nil
		}
		board := m.board
		return m, mutateCmd("Panier vidé.", func(ctx context.Context) error {
			return board.ClearCart(ctx, ids)
		})

	case "r":
		return m, refreshCmd(m.board)
	}
	return m, nil
}

// View renders the UI
func (m Model) View() string {
	var b strings.Builder

	inventoryTab, shoppingTab := inactiveTabStyle, inactiveTabStyle
	if m.page == domain.PageShopping {
		shoppingTab = activeTabStyle
	} else {
		inventoryTab = activeTabStyle
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		inventoryTab.Render("Inventaire"),
		shoppingTab.Render("Liste de courses"),
	))
	b.WriteString("\n\n")
	b.WriteString(m.search.View())
	b.WriteString("\n")

	if len(m.rows) == 0 {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("Aucun produit."))
		b.WriteString("\n")
	}
	section := ""
	for i, r := range m.rows {
		if r.section != section {
			section = r.section
			b.WriteString(categoryStyle.Render(section))
			b.WriteString("\n")
		}
		line := fmt.Sprintf("%s %s", checkbox(r.product.Flag(m.toggleKind())), r.product.Title)
		if i == m.cursor {
			b.WriteString(selectedItemStyle.Render("▸ " + line))
		} else {
			b.WriteString(itemStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}

	switch {
	case m.err != nil:
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Erreur : " + m.err.Error()))
	case m.status != "":
		b.WriteString("\n")
		b.WriteString(successStyle.Render(m.status))
	}

	help := []string{
		FormatKey("tab", "page"),
		FormatKey("/", "rechercher"),
		FormatKey("espace", "cocher"),
		FormatKey("ctrl+d", "supprimer"),
	}
	if m.page == domain.PageShopping {
		help = append(help, FormatKey("ctrl+x", "vider le panier"))
	}
	help = append(help, FormatKey("esc", "quitter"))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(strings.Join(help, " • ")))
	return b.String()
}

// Run starts the program on the terminal.
func Run(board *client.Board, page domain.PageType) error {
	_, err := tea.NewProgram(New(board, page), tea.WithAltScreen()).Run()
	return err
}
