package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/tower/internal/buildbot"
	"github.com/five82/tower/internal/logtail"
	"github.com/five82/tower/internal/state"
)

// Column widths for the builder table.
const (
	colStatus   = 12
	colNumber   = 7
	colRevision = 12
	colStarted  = 9
	colDuration = 9
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	sections := []string{
		m.renderHeader(),
		m.renderTable(),
		m.renderDetail(),
	}
	if m.showLogs {
		sections = append(sections, m.renderLogs())
	}
	sections = append(sections, m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	s := m.styles
	parts := []string{s.Logo.Render("tower"), s.MutedText.Render(m.opts.Config.BaseURL)}

	counts := m.snapshot.Counts()
	parts = append(parts,
		s.SuccessText.Render(fmt.Sprintf("%d ok", counts[buildbot.StatusSuccessful])),
		s.DangerText.Render(fmt.Sprintf("%d failed", counts[buildbot.StatusFailed])),
		s.InfoText.Render(fmt.Sprintf("%d running", counts[buildbot.StatusRunning])),
	)

	switch {
	case m.snapshot.IsOffline():
		parts = append(parts, s.DangerText.Render("offline"))
	case m.snapshot.LastError != nil:
		parts = append(parts, s.WarningText.Render("poll failed"))
	case !m.snapshot.LastUpdated.IsZero():
		ago := humanizeDuration(m.now().Sub(m.snapshot.LastUpdated))
		parts = append(parts, s.MutedText.Render("updated "+ago))
	default:
		parts = append(parts, s.MutedText.Render("connecting…"))
	}

	return s.Header.Width(m.width).Render(truncate(strings.Join(parts, "  "), m.width-2))
}

func (m Model) nameWidth() int {
	fixed := colStatus + colNumber + colRevision + colStarted + colDuration + 5
	return max(m.width-fixed-2, 12)
}

func (m Model) renderTable() string {
	s := m.styles
	nameW := m.nameWidth()
	header := strings.Join([]string{
		cell("BUILDER", nameW),
		cell("STATUS", colStatus),
		cell("BUILD", colNumber),
		cell("REVISION", colRevision),
		cell("STARTED", colStarted),
		cell("DURATION", colDuration),
	}, " ")
	lines := []string{s.MutedText.Render(" " + header)}

	if len(m.snapshot.Builders) == 0 {
		lines = append(lines, s.MutedText.Render(" no builders"))
		return strings.Join(lines, "\n")
	}

	for i, b := range m.snapshot.Builders {
		row := " " + m.renderRow(b, nameW)
		if i == m.selected {
			row = s.Selected.Render(cell(row, m.width))
		}
		lines = append(lines, row)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderRow(b state.BuilderState, nameW int) string {
	s := m.styles
	name := cell(b.Name, nameW)
	if !b.HasBuild {
		status := "-"
		if b.Err != nil {
			status = s.WarningText.Render(cell("unavailable", colStatus))
		}
		return strings.Join([]string{name, status}, " ")
	}

	build := b.Build
	started := "-"
	if !build.Start.IsZero() {
		started = humanizeDuration(m.now().Sub(build.Start)) + " ago"
	}
	badge := s.StatusStyle(build.Status).Render(truncate(string(build.Status), colStatus-2))
	if pad := colStatus - lipgloss.Width(badge); pad > 0 {
		badge += strings.Repeat(" ", pad)
	}
	return strings.Join([]string{
		name,
		badge,
		cell(strconv.Itoa(build.Number), colNumber),
		cell(shortRevision(build.Revision), colRevision),
		cell(started, colStarted),
		cell(formatElapsed(build.Duration(m.now())), colDuration),
	}, " ")
}

func (m Model) renderDetail() string {
	s := m.styles
	b, ok := m.selectedBuilder()
	if !ok {
		return ""
	}

	label := func(name string) string { return s.MutedText.Render(fmt.Sprintf("%-10s", name)) }
	lines := []string{s.AccentText.Render(b.Name)}

	if !b.HasBuild {
		msg := "no build information"
		if b.Err != nil {
			msg = b.Err.Error()
		}
		lines = append(lines, s.WarningText.Render(msg))
		return s.Panel.Width(max(m.width-2, 20)).Render(strings.Join(lines, "\n"))
	}

	build := b.Build
	lines = append(lines,
		label("Build")+" #"+strconv.Itoa(build.Number)+"  "+s.StatusStyle(build.Status).Render(string(build.Status)),
		label("Started")+" "+formatTimestamp(build.Start),
		label("Finished")+" "+formatTimestamp(build.Finish),
		label("Duration")+" "+formatElapsed(build.Duration(m.now())),
	)
	if build.Revision != "" {
		lines = append(lines, label("Revision")+" "+build.Revision)
	}
	if build.Error != "" {
		lines = append(lines, label("Error")+" "+s.DangerText.Render(build.Error))
	}
	if build.ErrorLog != "" {
		lines = append(lines, label("Log")+" "+build.ErrorLog)
	}
	return s.Panel.Width(max(m.width-2, 20)).Render(strings.Join(lines, "\n"))
}

func (m Model) renderLogLines() string {
	if len(m.logLines) == 0 {
		return m.styles.MutedText.Render("log is empty")
	}
	out := make([]string, 0, len(m.logLines))
	for _, line := range m.logLines {
		out = append(out, m.levelStyle(logtail.Level(line)).Render(line))
	}
	return strings.Join(out, "\n")
}

func (m Model) levelStyle(level string) lipgloss.Style {
	switch level {
	case "ERROR":
		return m.styles.DangerText
	case "WARN":
		return m.styles.WarningText
	case "DEBUG":
		return m.styles.MutedText
	default:
		return m.styles.Text
	}
}

func (m Model) renderLogs() string {
	title := m.styles.AccentText.Render("log") + " " + m.styles.MutedText.Render(m.opts.Config.LogPath())
	return m.styles.Panel.Width(max(m.width-2, 20)).Render(title + "\n" + m.logs.View())
}

func (m Model) renderFooter() string {
	var notice string
	if m.notice != "" {
		style := m.styles.InfoText
		if m.noticeErr {
			style = m.styles.DangerText
		}
		notice = style.Render(m.notice) + "\n"
	}
	return m.styles.Footer.Render(notice + m.help.View(m.keys))
}
