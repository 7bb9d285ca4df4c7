package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"todaybox/internal/calendar"
	"todaybox/internal/config"
	"todaybox/internal/recurrence"
	"todaybox/internal/storage"
	"todaybox/internal/tray"
	"todaybox/internal/view"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	sectionStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	doneStyle    = lipgloss.NewStyle().Strikethrough(true).Faint(true)
	dimStyle     = lipgloss.NewStyle().Faint(true)
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("TodayBox"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  filter:%s • sort:%s", m.filter, m.sort)))
	b.WriteString("\n\n")

	if m.mode == modeTray {
		b.WriteString(m.renderTray())
	} else if len(m.rows) == 0 {
		b.WriteString(emptyPlaceholder(m))
	} else {
		b.WriteString(m.renderTaskList())
	}

	b.WriteString("\n---\n")

	switch {
	case m.meta != nil:
		b.WriteString("Task editor (tab/shift+tab to move, enter to save/next, esc to cancel)")
		b.WriteString("\n\n")
		b.WriteString(m.renderMetaBox())
		b.WriteString("\n")
		b.WriteString("Field: " + m.meta.currentLabel())
		b.WriteString("\n")
		b.WriteString(m.input.View())
	case m.mode == modeAdd:
		b.WriteString("New task")
		b.WriteString("\n")
		b.WriteString(m.input.View())
	default:
		b.WriteString(m.renderDetailPanel())
	}

	b.WriteString("\n\n")
	b.WriteString(m.status)
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(renderHelp(m.cfg.Keys)))

	return b.String()
}

func emptyPlaceholder(m Model) string {
	if m.filter == view.FilterToday {
		return fmt.Sprintf("Nothing pinned for today. Press '%s' to show all tasks.", m.cfg.Keys.Filter)
	}
	return fmt.Sprintf("No tasks yet. Press '%s' to add one.", m.cfg.Keys.Add)
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s move • %s add • space toggle • %s today • %s/%s due • %s edit • %s delete • %s sort • %s filter • %s tray • %s quit",
		k.Up, k.Down, k.Add, k.Today, k.DueBack, k.DueForward, k.Edit, k.Delete, k.Sort, k.Filter, k.Tray, k.Quit)
}

func (m Model) renderTaskList() string {
	var b strings.Builder
	today := m.today()
	if len(m.list.Incomplete) > 0 {
		b.WriteString(sectionStyle.Render("Open"))
		b.WriteString("\n")
	}
	for i, t := range m.rows {
		if i == len(m.list.Incomplete) {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(sectionStyle.Render("Done"))
			b.WriteString("\n")
		}
		b.WriteString(m.renderRow(i, t, today))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderRow(i int, t storage.Task, today calendar.Date) string {
	cursor := " "
	if m.cursor == i && m.mode == modeList {
		cursor = ">"
	}
	checkbox := "[ ]"
	if t.Completed {
		checkbox = "[x]"
	}
	title := t.Title
	if t.Completed {
		title = doneStyle.Render(title)
	}
	body := fmt.Sprintf("%s %s %s", cursor, checkbox, title)

	var extras []string
	if t.IsToday {
		extras = append(extras, "★")
	}
	if t.DueDate != nil {
		extras = append(extras, "📅 "+calendar.Label(*t.DueDate, today))
	}
	if t.Recurrence != nil {
		if label, ok := recurrence.Label(*t.Recurrence); ok {
			extras = append(extras, "🔁 "+label)
		}
	}
	if t.Memo != nil {
		extras = append(extras, "✎")
	}
	if len(extras) > 0 {
		body += "  " + dimStyle.Render(strings.Join(extras, "  "))
	}
	return body
}

func (m Model) renderDetailPanel() string {
	t, ok := m.selected()
	if !ok {
		return dimStyle.Render("No task selected")
	}
	due := "-"
	if t.DueDate != nil {
		due = t.DueDate.String()
	}
	repeat := recurrence.Format(t.Recurrence)
	if repeat == "" {
		repeat = "-"
	}
	memo := "-"
	if t.Memo != nil {
		memo = *t.Memo
	}
	lines := []string{
		fmt.Sprintf("Created: %s", t.CreatedAt.Local().Format("2006-01-02 15:04")),
		fmt.Sprintf("Due: %s", due),
		fmt.Sprintf("Repeats: %s", repeat),
		fmt.Sprintf("Today: %t", t.IsToday),
		fmt.Sprintf("Memo: %s", memo),
	}
	if t.CompletedAt != nil {
		lines = append(lines, fmt.Sprintf("Completed: %s", t.CompletedAt.Local().Format("2006-01-02 15:04")))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderMetaBox() string {
	fields := metaFields()
	values := []string{m.meta.title, m.meta.due, m.meta.recurrence, m.meta.memo}
	var lines []string
	for i, name := range fields {
		marker := " "
		if i == m.meta.index {
			marker = ">"
		}
		lines = append(lines, fmt.Sprintf("%s %s: %s", marker, name, values[i]))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) renderTray() string {
	var lines []string
	for i, e := range m.entries {
		cursor := "  "
		if i == m.trayCursor && tray.Clickable(e) {
			cursor = "> "
		}
		lines = append(lines, cursor+renderEntry(e))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func renderEntry(e tray.Entry) string {
	switch e := e.(type) {
	case tray.Summary:
		return titleStyle.Render(tray.Label(e))
	case tray.Task:
		line := e.Label
		if e.Sublabel != nil {
			line += "  " + dimStyle.Render(*e.Sublabel)
		}
		return line
	case tray.Separator:
		return dimStyle.Render("────────────")
	case tray.Empty, tray.Error:
		return dimStyle.Render(tray.Label(e))
	case tray.Overflow, tray.Open, tray.Refresh, tray.Quit:
		return tray.Label(e)
	}
	panic(fmt.Sprintf("ui: unhandled tray entry %T", e))
}
