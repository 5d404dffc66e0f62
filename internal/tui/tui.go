package tui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Zuo-Peng/trainlog/internal/index"
	"github.com/Zuo-Peng/trainlog/internal/parse"
	"github.com/Zuo-Peng/trainlog/internal/report"
	"github.com/Zuo-Peng/trainlog/internal/search"
)

const debounceDelay = 200 * time.Millisecond

type tuiMode int

const (
	modeDashboard tuiMode = iota
	modeSearch
)

// message types

type itemsMsg struct {
	query   string
	records []parse.Record // dashboard mode only
	items   []item
	err     error
}

type debounceTickMsg struct {
	query string
}

// model

type model struct {
	db          *index.DB
	searchOpts  search.Options
	mode        tuiMode
	title       string
	records     []parse.Record
	filtered    []parse.Record
	query       string
	items       []item
	cursor      int
	listOffset  int
	filterInput textinput.Model
	preview     viewport.Model
	previewKey  string
	width       int
	height      int
	ready       bool
	quitting    bool
	selected    *item
}

func newFilterInput(placeholder, value string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Focus()
	ti.SetValue(value)
	ti.Prompt = "> "
	ti.PromptStyle = styleInputPrompt
	ti.TextStyle = styleInput
	ti.CharLimit = 256
	return ti
}

func dashboardModel(rep report.Report, title string) model {
	return model{
		mode:        modeDashboard,
		title:       title,
		records:     rep.Records,
		filtered:    rep.Records,
		items:       recordItems(rep.Records),
		filterInput: newFilterInput("Filter by member or message...", ""),
		preview:     viewport.New(0, 0),
	}
}

func searchModel(db *index.DB, query string, opts search.Options) model {
	return model{
		db:          db,
		searchOpts:  opts,
		mode:        modeSearch,
		title:       "archive",
		query:       query,
		filterInput: newFilterInput("Search archive...", query),
		preview:     viewport.New(0, 0),
	}
}

// Run shows the dashboard for rep and blocks until it exits. The record
// selected with Enter is copied to the clipboard.
func Run(rep report.Report, title string) error {
	fm, err := runProgram(dashboardModel(rep, title))
	if err != nil {
		return err
	}
	if fm.selected != nil {
		return copyRecord(os.Stdout, fm.selected.clipText())
	}
	return nil
}

// RunSearch browses archive hits for query and blocks until it exits.
func RunSearch(db *index.DB, query string, opts search.Options) error {
	fm, err := runProgram(searchModel(db, query, opts))
	if err != nil {
		return err
	}
	if fm.selected == nil {
		return nil
	}
	it := *fm.selected
	msg, err := fullMessage(db, it)
	if err != nil {
		return err
	}
	it.Message = msg
	return copyRecord(os.Stdout, it.clipText())
}

func runProgram(m model) (model, error) {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	finalModel, err := p.Run()
	if err != nil {
		return model{}, fmt.Errorf("tui: %w", err)
	}
	return finalModel.(model), nil
}

// fullMessage replaces the snippet of an archive hit by the stored message.
func fullMessage(db *index.DB, it item) (string, error) {
	records, hitIdx, _, _, err := db.GetRecordsWindow(it.ExportKey, it.RecordID, 0)
	if err != nil {
		return "", fmt.Errorf("get record: %w", err)
	}
	if hitIdx < 0 || hitIdx >= len(records) {
		return it.Message, nil
	}
	return records[hitIdx].Message, nil
}

func copyRecord(w io.Writer, text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		fmt.Fprintln(w, text)
		return nil
	}
	fmt.Fprintf(w, "Copied to clipboard: %s\n", text)
	return nil
}

// Init triggers the initial load.
func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.mode == modeSearch {
		cmds = append(cmds, m.doSearch(m.query))
	} else {
		cmds = append(cmds, m.loadCurrentPreview())
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.preview = newViewport(m.previewWidth(), m.panelHeight())
		m.previewKey = ""
		cmds = append(cmds, m.loadCurrentPreview())
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.Copy):
			if m.cursor < len(m.items) {
				it := m.items[m.cursor]
				m.selected = &it
				m.quitting = true
				return m, tea.Quit
			}

		case key.Matches(msg, keys.Clear):
			m.filterInput.SetValue("")
			if m.query != "" {
				m.query = ""
				cmds = append(cmds, m.refresh(""))
			}
			return m, tea.Batch(cmds...)

		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
				m.adjustListScroll(m.panelHeight())
				cmds = append(cmds, m.loadCurrentPreview())
			}
			return m, tea.Batch(cmds...)

		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.items)-1 {
				m.cursor++
				m.adjustListScroll(m.panelHeight())
				cmds = append(cmds, m.loadCurrentPreview())
			}
			return m, tea.Batch(cmds...)

		case key.Matches(msg, keys.PreviewUp):
			m.preview.LineUp(m.panelHeight() / 2)
			return m, nil

		case key.Matches(msg, keys.PreviewDn):
			m.preview.LineDown(m.panelHeight() / 2)
			return m, nil

		case key.Matches(msg, keys.PageUp):
			m.preview.LineUp(m.panelHeight())
			return m, nil

		case key.Matches(msg, keys.PageDown):
			m.preview.LineDown(m.panelHeight())
			return m, nil
		}

		var tiCmd tea.Cmd
		m.filterInput, tiCmd = m.filterInput.Update(msg)
		cmds = append(cmds, tiCmd)

		if q := m.filterInput.Value(); q != m.query {
			m.query = q
			cmds = append(cmds, m.scheduleDebounce(q))
		}
		return m, tea.Batch(cmds...)

	case tea.MouseMsg:
		if !m.ready || len(m.items) == 0 {
			return m, nil
		}

		region, itemIdx := m.hitTest(msg.X, msg.Y)

		switch {
		case region == regionList && msg.Button == tea.MouseButtonWheelUp:
			if m.listOffset > 0 {
				m.listOffset--
			}
			return m, nil

		case region == regionList && msg.Button == tea.MouseButtonWheelDown:
			maxOffset := max(len(m.items)-m.panelHeight()/linesPerItem, 0)
			if m.listOffset < maxOffset {
				m.listOffset++
			}
			return m, nil

		case region == regionList && msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
			if itemIdx >= 0 && itemIdx < len(m.items) && m.cursor != itemIdx {
				m.cursor = itemIdx
				m.adjustListScroll(m.panelHeight())
				cmds = append(cmds, m.loadCurrentPreview())
			}
			return m, tea.Batch(cmds...)

		case region == regionPreview && (msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown):
			var vpCmd tea.Cmd
			m.preview, vpCmd = m.preview.Update(msg)
			return m, vpCmd
		}

		return m, nil

	case debounceTickMsg:
		if msg.query == m.query {
			cmds = append(cmds, m.refresh(msg.query))
		}
		return m, tea.Batch(cmds...)

	case itemsMsg:
		if msg.query != m.query {
			return m, nil
		}
		m.cursor = 0
		m.listOffset = 0
		m.previewKey = ""
		if msg.err != nil {
			m.items = nil
			m.filtered = nil
			m.preview.SetContent("Error: " + msg.err.Error())
			return m, nil
		}
		m.items = msg.items
		m.filtered = msg.records
		if m.mode == modeSearch && len(m.items) == 0 {
			m.preview.SetContent("")
			return m, nil
		}
		return m, m.loadCurrentPreview()

	case previewRenderedMsg:
		if msg.key != m.wantPreviewKey() || msg.key == m.previewKey {
			return m, nil
		}
		if msg.err != nil {
			m.preview.SetContent("Preview error: " + msg.err.Error())
		} else {
			m.preview.SetContent(msg.content)
			if msg.hitLine > 0 {
				m.preview.SetYOffset(msg.hitLine)
			} else {
				m.preview.GotoTop()
			}
		}
		m.previewKey = msg.key
		return m, nil
	}

	return m, tea.Batch(cmds...)
}

// View renders the full TUI.
func (m model) View() string {
	if m.quitting || !m.ready {
		return ""
	}

	listW := m.listWidth()
	previewW := m.previewWidth()
	panelH := m.panelHeight()

	listPanel := stylePanelBorder.
		Width(listW).
		Height(panelH).
		Render(m.renderList(listW, panelH))

	m.preview.Width = previewW
	m.preview.Height = panelH
	previewPanel := styleActiveBorder.
		Width(previewW).
		Height(panelH).
		Render(m.preview.View())

	panels := lipgloss.JoinHorizontal(lipgloss.Top, listPanel, previewPanel)
	return lipgloss.JoinVertical(lipgloss.Left, m.filterInput.View(), panels, m.statusBar())
}

// helper methods

func (m model) listWidth() int {
	if m.width <= 0 {
		return 40
	}
	return max(m.width*40/100-4, 20)
}

func (m model) previewWidth() int {
	if m.width <= 0 {
		return 60
	}
	return max(m.width*60/100-4, 20)
}

func (m model) panelHeight() int {
	if m.height <= 0 {
		return 20
	}
	// input row (1) + status bar (1) + borders (4)
	return max(m.height-6, 5)
}

type mouseRegion int

const (
	regionNone mouseRegion = iota
	regionList
	regionPreview
)

// hitTest maps terminal coordinates to a panel region and list item index.
func (m model) hitTest(x, y int) (mouseRegion, int) {
	contentYStart := 2 // input row + top border
	contentYEnd := contentYStart + m.panelHeight() - 1
	if y < contentYStart || y > contentYEnd {
		return regionNone, -1
	}
	relY := y - contentYStart

	lw := m.listWidth()
	if x >= 1 && x <= lw {
		return regionList, m.listOffset + relY/linesPerItem
	}
	// col 0 and lw+1 are the list borders
	if x > lw+2 {
		return regionPreview, -1
	}
	return regionNone, -1
}

func (m model) statusBar() string {
	parts := []string{m.title}
	if m.mode == modeDashboard {
		parts = append(parts, fmt.Sprintf("%d/%d records", len(m.items), len(m.records)))
	} else {
		parts = append(parts, fmt.Sprintf("%d results", len(m.items)))
	}
	parts = append(parts,
		"click/up/dn navigate",
		"scroll/C-u/C-d preview",
		"Enter copy record",
		"Esc quit",
	)
	return styleStatusBar.Render(strings.Join(parts, " | "))
}

func (m model) refresh(query string) tea.Cmd {
	if m.mode == modeSearch {
		return m.doSearch(query)
	}
	return m.doFilter(query)
}

func (m model) doFilter(query string) tea.Cmd {
	records := m.records
	return func() tea.Msg {
		filtered := filterRecords(records, query)
		return itemsMsg{query: query, records: filtered, items: recordItems(filtered)}
	}
}

func (m model) doSearch(query string) tea.Cmd {
	db := m.db
	opts := m.searchOpts
	opts.Query = query
	return func() tea.Msg {
		results, err := search.Search(db, opts)
		return itemsMsg{query: query, items: resultItems(results), err: err}
	}
}

func (m model) scheduleDebounce(query string) tea.Cmd {
	return tea.Tick(debounceDelay, func(time.Time) tea.Msg {
		return debounceTickMsg{query: query}
	})
}

func (m model) currentItem() *item {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return nil
	}
	it := m.items[m.cursor]
	return &it
}

func (m model) wantPreviewKey() string {
	if it := m.currentItem(); it != nil {
		return previewCacheKey(m.query, *it)
	}
	return previewCacheKey(m.query, item{})
}

func (m model) loadCurrentPreview() tea.Cmd {
	if m.wantPreviewKey() == m.previewKey {
		return nil
	}
	it := m.currentItem()
	if m.mode == modeDashboard {
		return dashboardPreviewCmd(m.filtered, it, m.query, m.previewWidth())
	}
	if it == nil {
		return nil
	}
	return loadPreviewCmd(m.db, *it, m.query, m.previewWidth())
}
