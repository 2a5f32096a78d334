package report

import (
	"fmt"
	"html/template"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"fintrack/internal/log"
	"fintrack/web"
)

// Renderer executes the embedded report template.
type Renderer struct {
	tmpl   *template.Template
	logger *log.Logger
}

// NewRenderer parses the embedded report template.
func NewRenderer(logger *log.Logger) (*Renderer, error) {
	t, err := template.ParseFS(web.TemplatesFS, "templates/report.html")
	if err != nil {
		return nil, fmt.Errorf("parse report template: %w", err)
	}
	return &Renderer{tmpl: t, logger: logger.WithComponent(log.ComponentReport)}, nil
}

// HTML writes the printable page.
func (r *Renderer) HTML(w io.Writer, rep Report) error {
	if err := r.tmpl.ExecuteTemplate(w, "report.html", rep); err != nil {
		r.logger.Error("Report template execution failed",
			log.FieldOperation, log.OpRender, log.FieldError, err.Error(), "title", rep.Title)
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")).MarginBottom(1)
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	incomeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#4caf50"))
	expenseStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f44336"))
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#333")).Padding(0, 1)
)

// Terminal renders the report for a terminal.
func Terminal(rep Report) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(rep.Title))
	b.WriteString("\n")

	columns := make([]string, 0, len(rep.Summary))
	for _, col := range rep.Summary {
		lines := make([]string, 0, len(col))
		for _, l := range col {
			lines = append(lines, labelStyle.Render(l.Label+":")+" "+l.Value)
		}
		columns = append(columns, boxStyle.Render(strings.Join(lines, "\n")))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, columns...))
	b.WriteString("\n\n")

	b.WriteString(headingStyle.Render("Expense Details"))
	b.WriteString("\n")
	if len(rep.Rows) == 0 {
		b.WriteString(labelStyle.Render("No transactions this month."))
		b.WriteString("\n")
	} else {
		tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", "Date", "Description", "Category", "Amount", "Type")
		for _, row := range rep.Rows {
			style := expenseStyle
			if row.IsIncome {
				style = incomeStyle
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", row.Date, row.Description, row.Category, row.Amount, style.Render(row.Type))
		}
		tw.Flush()
	}

	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Generated on: " + rep.GeneratedAt))
	b.WriteString("\n")
	return b.String()
}
