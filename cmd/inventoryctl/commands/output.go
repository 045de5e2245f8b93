package commands

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"inventory-service/internal/domain"
	"inventory-service/internal/view"
)

var (
	colorSuccess = lipgloss.Color("#10B981")
	colorError   = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")
	colorPrimary = lipgloss.Color("#2E7D32")
	colorAccent  = lipgloss.Color("#F59E0B")

	successStyle  = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	primaryStyle  = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	categoryStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
)

func success(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, successStyle.Render("✓ ")+fmt.Sprintf(format, args...))
}

func mark(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

// renderView prints a derived page: category groups, then the cart section
// on the shopping page.
func renderView(w io.Writer, v view.View) {
	title := "Inventaire"
	if v.Page == domain.PageShopping {
		title = "Liste de courses"
	}
	fmt.Fprintln(w, primaryStyle.Render(title))

	if len(v.Groups) == 0 && len(v.InCart) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("Aucun produit."))
		return
	}
	for _, g := range v.Groups {
		fmt.Fprintln(w, categoryStyle.Render(g.Category))
		for _, p := range g.Products {
			flag := p.ToBuy
			if v.Page == domain.PageShopping {
				flag = p.InCart
			}
			fmt.Fprintf(w, "  %s %s %s\n", mark(flag), p.Title, mutedStyle.Render(fmt.Sprintf("#%d", p.ID)))
		}
	}
	if v.Page == domain.PageShopping && len(v.InCart) > 0 {
		fmt.Fprintln(w, categoryStyle.Render("Dans le panier"))
		for _, p := range v.InCart {
			fmt.Fprintf(w, "  %s %s %s\n", mark(true), p.Title, mutedStyle.Render(fmt.Sprintf("#%d", p.ID)))
		}
	}
}
