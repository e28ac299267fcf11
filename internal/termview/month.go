// Package termview renders a bound month grid for the terminal.
package termview

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"clubcal/internal/calendar"
	"clubcal/internal/model"
)

const cellWidth = 9

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	headerStyle = lipgloss.NewStyle().Bold(true).Width(cellWidth)
	cellStyle   = lipgloss.NewStyle().Width(cellWidth)
	otherStyle  = cellStyle.Faint(true)
	todayStyle  = cellStyle.Reverse(true)
	legendStyle = lipgloss.NewStyle().MarginTop(1)
)

// glyph is the per-category marker used in cells and the legend.
func glyph(c model.Category) string {
	switch c {
	case model.CategoryYacht:
		return "Y"
	case model.CategoryService:
		return "S"
	case model.CategoryEvent:
		return "E"
	default:
		return "?"
	}
}

func categoryStyle(c model.Category) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c.Style().Color))
}

// RenderMonth draws cells (as produced by calendar.BindMonth) as a table:
// the day number followed by a per-category event count.
func RenderMonth(month calendar.Date, cells []calendar.DayEvents, weekStart time.Weekday) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(month.In(time.UTC).Format("January 2006")))
	b.WriteString("\n")

	headers := make([]string, calendar.DaysPerWeek)
	for i := range headers {
		headers[i] = headerStyle.Render(time.Weekday((int(weekStart) + i) % calendar.DaysPerWeek).String()[:3])
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, headers...))
	b.WriteString("\n")

	for _, week := range calendar.Weeks(cells) {
		row := make([]string, 0, calendar.DaysPerWeek)
		for _, c := range week {
			row = append(row, renderCell(c))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, row...))
		b.WriteString("\n")
	}

	legend := make([]string, 0, len(model.Categories))
	for _, c := range model.Categories {
		legend = append(legend, categoryStyle(c).Render(glyph(c))+"="+c.Style().Label)
	}
	b.WriteString(legendStyle.Render(strings.Join(legend, "  ")))
	b.WriteString("\n")
	return b.String()
}

func renderCell(c calendar.DayEvents) string {
	counts := make(map[model.Category]int)
	for _, ev := range c.Events {
		counts[ev.Category()]++
	}

	text := fmt.Sprintf("%2d", c.Date.Day)
	for _, cat := range model.Categories {
		if n := counts[cat]; n > 0 {
			text += " " + categoryStyle(cat).Render(fmt.Sprintf("%s%d", glyph(cat), n))
		}
	}

	switch {
	case c.IsToday:
		return todayStyle.Render(text)
	case !c.IsCurrentMonth:
		return otherStyle.Render(text)
	default:
		return cellStyle.Render(text)
	}
}
