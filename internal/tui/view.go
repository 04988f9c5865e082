package tui

import (
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/evanschultz/enrichgrid/internal/domain"
	"github.com/evanschultz/enrichgrid/internal/grid"
)

// layout constants shared by rendering and mouse hit testing.
const (
	sidebarWidth      = 20
	checkboxHitWidth  = 6
	cardWidth         = 38
	cardHeight        = 4
	idColumnWidth     = 5
	timeColumnWidth   = 26
	enrichColumnWidth = 26
	statusColumnWidth = 10
	playColumnWidth   = 8
	minActionWidth    = 16
	bottomChromeLines = 4
)

var (
	accentColor   = lipgloss.Color("62")
	mutedColor    = lipgloss.Color("241")
	errorColor    = lipgloss.Color("196")
	loadingColor  = lipgloss.Color("214")
	completeColor = lipgloss.Color("42")
	linkColor     = lipgloss.Color("39")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	mutedStyle    = lipgloss.NewStyle().Foreground(mutedColor)
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	linkStyle     = lipgloss.NewStyle().Foreground(linkColor).Underline(true)
	alertStyle    = lipgloss.NewStyle().Foreground(errorColor)
	bannerStyle   = lipgloss.NewStyle().Bold(true).Foreground(errorColor)
	headerCell    = lipgloss.NewStyle().Bold(true).Foreground(mutedColor)
	modalStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(accentColor).Padding(0, 1)
	cardStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(mutedColor).Width(cardWidth - 2)
	cardFocus     = cardStyle.BorderForeground(accentColor)
	statCardStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(mutedColor).Padding(0, 1)
	sidebarStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(mutedColor).Width(sidebarWidth - 2)
	helpLineStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), true, false, false, false).BorderForeground(mutedColor)
)

// View renders the current model view.
func (m Model) View() tea.View {
	v := tea.NewView(m.renderContent())
	v.AltScreen = true
	v.MouseMode = tea.MouseModeCellMotion
	return v
}

// renderContent renders the full screen as text.
func (m Model) renderContent() string {
	if m.err != nil {
		return "error: " + m.err.Error() + "\n\npress r to retry • q quit"
	}
	if !m.ready {
		return "loading..."
	}

	sections := []string{m.renderTop(), m.renderGridArea()}
	if form := m.renderCreationForm(); form != "" {
		sections = append(sections, form)
	}
	sections = append(sections, m.renderFooter(), m.renderStatusLine(), m.renderHelpLine())
	content := strings.Join(sections, "\n")

	var overlay string
	switch {
	case m.help.ShowAll:
		overlay = m.renderHelpOverlay()
	case m.mode == modeDetail:
		overlay = m.renderDetailModal()
	case m.mode == modeActivityLog:
		overlay = m.renderActivityLogModal()
	case m.mode == modeConfirmDelete:
		overlay = m.renderConfirmModal()
	}
	if overlay != "" {
		content = overlayOnContent(content, overlay, m.width, m.height)
	}
	return content
}

// renderTop renders everything above the grid. Its height anchors mouse hit testing.
func (m Model) renderTop() string {
	lines := []string{m.renderHeader()}
	if stats := m.renderStats(); stats != "" {
		lines = append(lines, stats)
	}
	lines = append(lines, m.renderToolbar())
	if banner := m.grid.Banner(); banner != "" {
		lines = append(lines, bannerStyle.Render("! "+banner+"  (esc dismiss)"))
	}
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func (m Model) renderHeader() string {
	title := strings.TrimSpace(m.gridConfig.Title)
	if title == "" {
		title = DefaultGridConfig().Title
	}
	parts := []string{titleStyle.Render(title), mutedStyle.Render(string(m.grid.ViewMode()) + " view")}
	if count := m.grid.SelectionCount(); count > 0 {
		parts = append(parts, cursorStyle.Render(fmt.Sprintf("%d items selected", count)))
	}
	parts = append(parts, mutedStyle.Render("auto-save "+onOff(m.grid.AutoSave())))
	return strings.Join(parts, mutedStyle.Render(" • "))
}

func (m Model) renderStats() string {
	stats := m.grid.Stats()
	if len(stats) == 0 {
		return ""
	}
	cards := make([]string, 0, len(stats))
	for _, stat := range stats {
		trend := lipgloss.NewStyle().Foreground(errorColor)
		if stat.TrendUp() {
			trend = lipgloss.NewStyle().Foreground(completeColor)
		}
		body := mutedStyle.Render(stat.Label) + " " + lipgloss.NewStyle().Bold(true).Render(stat.Value) + " " + trend.Render(stat.Trend)
		cards = append(cards, statCardStyle.Render(body))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func (m Model) renderToolbar() string {
	hints := []string{
		"/ search",
		"f filter",
		"n new record",
		"v " + string(otherViewMode(m.grid.ViewMode())) + " view",
		"b sidebar",
		"g activity",
	}
	return mutedStyle.Render(strings.Join(hints, "  "))
}

func otherViewMode(mode grid.ViewMode) grid.ViewMode {
	if mode == grid.ViewTable {
		return grid.ViewGrid
	}
	return grid.ViewTable
}

// renderGridArea renders the records with the optional sidebar.
func (m Model) renderGridArea() string {
	var body string
	if m.grid.ViewMode() == grid.ViewGrid {
		body = m.renderCards()
	} else {
		body = m.renderTable()
	}
	if !m.grid.SidebarOpen() {
		return body
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(lipgloss.Height(body)), body)
}

func (m Model) renderSidebar(height int) string {
	return sidebarStyle.Height(max(1, height-2)).Render(m.renderSidebarBody())
}

func (m Model) renderSidebarBody() string {
	counts := map[domain.Status]int{}
	for _, rec := range m.grid.Records() {
		counts[rec.Status]++
	}
	lines := []string{
		titleStyle.Render("Views"),
		fmt.Sprintf("• All (%d)", m.grid.Len()),
		fmt.Sprintf("• Selected (%d)", m.grid.SelectionCount()),
		"",
		titleStyle.Render("Status"),
		fmt.Sprintf("• %s (%d)", domain.StatusComplete, counts[domain.StatusComplete]),
		fmt.Sprintf("• %s (%d)", domain.StatusLoading, counts[domain.StatusLoading]),
		fmt.Sprintf("• %s (%d)", domain.StatusError, counts[domain.StatusError]),
	}
	return strings.Join(lines, "\n")
}

// gridLeft returns the first column of the record area.
func (m Model) gridLeft() int {
	if m.grid.SidebarOpen() {
		return lipgloss.Width(m.renderSidebar(1))
	}
	return 0
}

func (m Model) gridWidth() int {
	return max(cardWidth, m.width-m.gridLeft())
}

// cardSpan returns the rendered width of one card.
func cardSpan() int {
	return lipgloss.Width(cardStyle.Render(""))
}

// gridTop returns the first row of the record area, under the table header in table mode.
func (m Model) gridTop() int {
	top := lipgloss.Height(m.renderTop())
	if m.grid.ViewMode() == grid.ViewTable {
		top++
	}
	return top
}

// visibleLines returns the number of terminal rows available for records.
func (m Model) visibleLines() int {
	formLines := 0
	if form := m.renderCreationForm(); form != "" {
		formLines = lipgloss.Height(form)
	}
	used := m.gridTop() + formLines + bottomChromeLines
	return max(cardHeight, m.height-used)
}

func (m Model) actionWidth() int {
	fixed := checkboxHitWidth + idColumnWidth + timeColumnWidth + enrichColumnWidth + statusColumnWidth + playColumnWidth
	return max(minActionWidth, m.gridWidth()-fixed-1)
}

// tableWindow returns the visible record range in table mode.
func (m Model) tableWindow() (int, int) {
	return windowBounds(m.grid.Len(), m.cursor, m.visibleLines())
}

func (m Model) cardsPerRow() int {
	return max(1, m.gridWidth()/cardSpan())
}

// cardWindow returns the visible card-row range in grid mode.
func (m Model) cardWindow() (int, int) {
	perRow := m.cardsPerRow()
	rows := (m.grid.Len() + perRow - 1) / perRow
	return windowBounds(rows, m.cursor/perRow, max(1, m.visibleLines()/cardHeight))
}

func (m Model) renderTable() string {
	actionWidth := m.actionWidth()
	header := "  " + strings.Repeat(" ", checkboxHitWidth-2) +
		headerCell.Render(fitCell("ID", idColumnWidth)) +
		headerCell.Render(fitCell("Timestamp", timeColumnWidth)) +
		headerCell.Render(fitCell("Action", actionWidth)) +
		headerCell.Render(fitCell("Enrichment", enrichColumnWidth)) +
		headerCell.Render(fitCell("Status", statusColumnWidth))
	lines := []string{header}

	records := m.grid.Records()
	if len(records) == 0 {
		lines = append(lines, mutedStyle.Render("  no records yet, press n to add one"))
		return strings.Join(lines, "\n")
	}
	start, end := m.tableWindow()
	for idx := start; idx < end; idx++ {
		lines = append(lines, m.renderTableRow(records[idx], idx == m.cursor, actionWidth))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderTableRow(rec domain.Record, focused bool, actionWidth int) string {
	marker := "  "
	if focused {
		marker = cursorStyle.Render("› ")
	}
	id := fmt.Sprintf("%d", rec.ID)
	if focused {
		id = cursorStyle.Render(fitCell(id, idColumnWidth))
	} else {
		id = fitCell(id, idColumnWidth)
	}
	return marker + checkbox(m.grid.IsSelected(rec.ID)) + " " +
		id +
		mutedStyle.Render(fitCell(rec.Timestamp, timeColumnWidth)) +
		renderAction(rec, actionWidth) +
		fitCell(string(rec.Enrichment.Icon)+" "+rec.Enrichment.Name, enrichColumnWidth) +
		statusBadge(rec.Status) +
		playButton()
}

func (m Model) renderCards() string {
	records := m.grid.Records()
	if len(records) == 0 {
		return mutedStyle.Render("  no records yet, press n to add one")
	}
	perRow := m.cardsPerRow()
	start, end := m.cardWindow()
	rows := make([]string, 0, end-start)
	for row := start; row < end; row++ {
		cards := make([]string, 0, perRow)
		for col := 0; col < perRow; col++ {
			idx := row*perRow + col
			if idx >= len(records) {
				break
			}
			cards = append(cards, m.renderCard(records[idx], idx == m.cursor))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return strings.Join(rows, "\n")
}

func (m Model) renderCard(rec domain.Record, focused bool) string {
	inner := cardWidth - 4
	first := checkbox(m.grid.IsSelected(rec.ID)) + " " +
		fitCell(fmt.Sprintf("#%d %s %s", rec.ID, rec.Enrichment.Icon, rec.Enrichment.Name), inner-14) +
		statusBadge(rec.Status)
	second := renderAction(rec, inner-playColumnWidth) + playButton()
	style := cardStyle
	if focused {
		style = cardFocus
	}
	return style.Render(first + "\n" + second)
}

// rowHit names the part of a record row under the pointer.
type rowHit int

const (
	hitRow rowHit = iota
	hitCheckbox
	hitPlay
)

// playColumnStart returns the table column where the play button begins.
func (m Model) playColumnStart() int {
	return checkboxHitWidth + idColumnWidth + timeColumnWidth + m.actionWidth() + enrichColumnWidth + statusColumnWidth
}

// rowAt maps a terminal cell to a record index and the part of the row it hits.
func (m Model) rowAt(x, y int) (int, rowHit, bool) {
	localX := x - m.gridLeft()
	localY := y - m.gridTop()
	if localX < 0 || localY < 0 || m.grid.Len() == 0 {
		return 0, hitRow, false
	}
	if m.grid.ViewMode() == grid.ViewGrid {
		start, end := m.cardWindow()
		row := start + localY/cardHeight
		span := cardSpan()
		col := localX / span
		perRow := m.cardsPerRow()
		if row >= end || col >= perRow {
			return 0, hitRow, false
		}
		idx := row*perRow + col
		if idx >= m.grid.Len() {
			return 0, hitRow, false
		}
		// card border, then "[x] " on the first line and play at the end of the second
		cardX, cardY := localX%span, localY%cardHeight
		inner := cardWidth - 4
		switch {
		case cardY == 1 && cardX >= 1 && cardX < 1+4:
			return idx, hitCheckbox, true
		case cardY == 2 && cardX >= 1+inner-playColumnWidth && cardX < 1+inner:
			return idx, hitPlay, true
		}
		return idx, hitRow, true
	}
	start, end := m.tableWindow()
	idx := start + localY
	if idx >= end {
		return 0, hitRow, false
	}
	switch playStart := m.playColumnStart(); {
	case localX < checkboxHitWidth:
		return idx, hitCheckbox, true
	case localX >= playStart && localX < playStart+playColumnWidth:
		return idx, hitPlay, true
	}
	return idx, hitRow, true
}

// renderCreationForm renders the inline creation row under the grid.
func (m Model) renderCreationForm() string {
	if m.grid.FormState() == grid.FormClosed {
		return ""
	}
	draft := m.grid.Draft()
	fields := []string{
		m.actionInput.View(),
		m.nameInput.View(),
		m.renderIconPicker(draft.Enrichment.Icon),
	}
	row := strings.Join(fields, "  ")
	var hint string
	if m.grid.Submitting() {
		hint = m.spinner.View() + " saving..."
	} else {
		errs := make([]string, 0, 3)
		for _, field := range []domain.DraftField{domain.DraftFieldAction, domain.DraftFieldEnrichmentName, domain.DraftFieldIcon} {
			if msg := m.grid.FieldError(field); msg != "" {
				errs = append(errs, alertStyle.Render(string(field)+": "+msg))
			}
		}
		if len(errs) > 0 {
			hint = strings.Join(errs, "  ")
		} else {
			hint = mutedStyle.Render("tab next field • enter save • esc cancel")
		}
	}
	return lipgloss.NewStyle().Foreground(accentColor).Render("+ new record") + "\n" + row + "\n" + hint
}

func (m Model) renderIconPicker(current domain.Icon) string {
	label := "icon: "
	if m.formFocus == formFieldIcon && !m.grid.Submitting() {
		label = cursorStyle.Render("icon: ")
	}
	icons := domain.Icons()
	parts := make([]string, 0, len(icons))
	for idx, icon := range icons {
		cell := fmt.Sprintf("%d %s", idx+1, icon)
		if icon == current {
			cell = cursorStyle.Render("[" + cell + "]")
		} else {
			cell = " " + cell + " "
		}
		parts = append(parts, cell)
	}
	return label + strings.Join(parts, "")
}

func (m Model) renderFooter() string {
	total := m.grid.Len()
	if total == 0 {
		return mutedStyle.Render("showing 0 of 0 records")
	}
	var start, end int
	if m.grid.ViewMode() == grid.ViewGrid {
		perRow := m.cardsPerRow()
		rowStart, rowEnd := m.cardWindow()
		start, end = rowStart*perRow, min(total, rowEnd*perRow)
	} else {
		start, end = m.tableWindow()
	}
	return mutedStyle.Render(fmt.Sprintf("showing %d to %d of %d records  [ prev  ] next", start+1, end, total))
}

func (m Model) renderStatusLine() string {
	status := strings.TrimSpace(m.status)
	if status == "" {
		status = "ready"
	}
	return mutedStyle.Render(truncate(status, max(1, m.width)))
}

func (m Model) renderHelpLine() string {
	h := m.help
	h.ShowAll = false
	h.SetWidth(max(0, m.width-2))
	return helpLineStyle.Render(h.View(m.keys))
}

func (m Model) renderHelpOverlay() string {
	h := m.help
	h.ShowAll = true
	h.SetWidth(max(20, min(100, m.width-8)))
	return modalStyle.Render(titleStyle.Render("Keys") + "\n\n" + h.View(m.keys) + "\n\n" + mutedStyle.Render("esc close"))
}

func (m Model) modalWidth() int {
	return clamp(m.width-10, 30, 84)
}

// renderDetailModal renders the selected record as a markdown document.
func (m Model) renderDetailModal() string {
	rec, ok := m.grid.SelectedRecord()
	if !ok {
		return ""
	}
	width := m.modalWidth()
	body := strings.TrimRight(m.markdown.render(detailMarkdown(rec), width-4), "\n")
	body = fitLines(body, max(6, m.height-8))
	return modalStyle.Width(width).Render(body + "\n" + mutedStyle.Render("y copy action • esc close"))
}

// detailMarkdown builds the detail document for one record.
func detailMarkdown(rec domain.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s %s\n\n", rec.Enrichment.Icon, rec.Enrichment.Name)
	fmt.Fprintf(&b, "**Status:** %s\n\n", rec.Status)
	if rec.IsLink() {
		fmt.Fprintf(&b, "**Action:** [%s](%s)\n\n", rec.Action, rec.Action)
	} else {
		fmt.Fprintf(&b, "**Action:** %s\n\n", rec.Action)
	}
	fmt.Fprintf(&b, "**Timestamp:** %s\n\n", rec.Timestamp)
	fmt.Fprintf(&b, "`record #%d`\n", rec.ID)
	return b.String()
}

// renderActivityLogModal renders the newest activity entries.
func (m Model) renderActivityLogModal() string {
	width := m.modalWidth()
	lines := []string{titleStyle.Render("Activity"), ""}
	if len(m.activityLog) == 0 {
		lines = append(lines, mutedStyle.Render("no activity yet"))
	} else {
		start, end := windowBounds(len(m.activityLog), len(m.activityLog)-1, activityLogViewWindow)
		for idx := end - 1; idx >= start; idx-- {
			entry := m.activityLog[idx]
			line := fmt.Sprintf("%s  %s  %s", formatActivityTimestamp(entry.At), entry.Summary, entry.Target)
			lines = append(lines, truncate(line, width-4))
		}
	}
	lines = append(lines, "", mutedStyle.Render("esc close"))
	return modalStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m Model) renderConfirmModal() string {
	count := len(m.pendingDelete)
	yes, no := " delete ", " cancel "
	if m.confirmChoice == 0 {
		yes = cursorStyle.Render("[delete]")
	} else {
		no = cursorStyle.Render("[cancel]")
	}
	body := fmt.Sprintf("Delete %d selected %s?", count, pluralRecords(count))
	return modalStyle.Render(body + "\n\n" + yes + "  " + no + "\n\n" + mutedStyle.Render("y confirm • n cancel"))
}

func checkbox(checked bool) string {
	if checked {
		return cursorStyle.Render("[x]")
	}
	return "[ ]"
}

func playButton() string {
	return linkStyle.Render("▶ play") + strings.Repeat(" ", playColumnWidth-lipgloss.Width("▶ play"))
}

func statusBadge(status domain.Status) string {
	color := completeColor
	switch status {
	case domain.StatusError:
		color = errorColor
	case domain.StatusLoading:
		color = loadingColor
	}
	return lipgloss.NewStyle().Bold(true).Foreground(color).Render(fitCell(string(status), statusColumnWidth))
}

func renderAction(rec domain.Record, width int) string {
	text := fitCell(rec.Action, width)
	switch {
	case rec.IsLink():
		return linkStyle.Render(strings.TrimRight(text, " ")) + strings.Repeat(" ", max(0, width-lipgloss.Width(strings.TrimRight(text, " "))))
	case rec.Status == domain.StatusError:
		return alertStyle.Render(text)
	default:
		return text
	}
}

// fitCell truncates s and pads it to width display cells.
func fitCell(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = truncate(s, width-1)
	return s + strings.Repeat(" ", max(1, width-lipgloss.Width(s)))
}

// formatActivityTimestamp formats activity timestamps for compact modal rendering.
func formatActivityTimestamp(at time.Time) string {
	if at.IsZero() {
		return "--:--:--"
	}
	local := at.Local()
	now := time.Now().In(local.Location())
	if local.Year() != now.Year() || local.YearDay() != now.YearDay() {
		return local.Format("01-02 15:04")
	}
	return local.Format("15:04:05")
}

// fitLines fits lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent centers overlay over base on a layered canvas.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}
	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	centered := lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, overlay)
	canvas.Compose(lipgloss.NewLayer(base).X(0).Y(0).Z(0))
	canvas.Compose(lipgloss.NewLayer(centered).X(0).Y(0).Z(10))
	return canvas.Render()
}

// truncate shortens s to max runes with a trailing ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 1 {
		return string(rs[:max])
	}
	return string(rs[:max-1]) + "…"
}
