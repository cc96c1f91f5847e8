package console

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// TableConfig describes a table for RenderTable.
type TableConfig struct {
	Title     string
	Headers   []string
	Rows      [][]string
	ShowTotal bool
	TotalRow  []string
}

var (
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
	tableTotalStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	tableTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorInfo)
)

// RenderTable renders config with rounded borders. An empty table renders as "".
func RenderTable(config TableConfig) string {
	if len(config.Headers) == 0 {
		return ""
	}

	rows := config.Rows
	if config.ShowTotal && len(config.TotalRow) > 0 {
		rows = append(append([][]string{}, rows...), config.TotalRow)
	}
	totalIndex := -2
	if config.ShowTotal && len(config.TotalRow) > 0 {
		totalIndex = len(rows) - 1
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorMuted)).
		Headers(config.Headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch row {
			case table.HeaderRow:
				return tableHeaderStyle
			case totalIndex:
				return tableTotalStyle
			default:
				return tableCellStyle
			}
		})

	var sb strings.Builder
	if config.Title != "" {
		sb.WriteString(tableTitleStyle.Render(config.Title))
		sb.WriteString("\n")
	}
	sb.WriteString(t.String())
	sb.WriteString("\n")
	return sb.String()
}
