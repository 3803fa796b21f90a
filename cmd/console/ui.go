package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/wordwrap"

	"github.com/lorekeep/motif-engine/pkg/motif"
)

const (
	AgentName       = "World"
	PlaceHolderText = "Describe what you do, or use /commands..."
	WholeWorld      = "(whole world)"
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	region       string // "" means the whole world
	log          []logEntry
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool
	dominant     []*motif.Motif
	recentEvents []motif.WorldEvent

	// Region selection state
	showRegionModal bool
	regions         []string
	selectedRegion  int
	loadingRegions  bool

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type logEntry struct {
	speaker string // "" for player actions
	text    string
}

type narrationMsg struct {
	text string
	err  error
}

type worldSnapshotMsg struct {
	dominant []*motif.Motif
	events   []motif.WorldEvent
	err      error
}

type regionsLoadedMsg struct {
	regions []string
	err     error
}

type commandResultMsg struct {
	text string
	err  error
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:          cfg,
		client:          client,
		textarea:        ta,
		chatViewport:    chatVp,
		metaViewport:    metaVp,
		ready:           false,
		showRegionModal: true,
		loadingRegions:  true,
		selectedRegion:  0,
	}
}

func (m *ConsoleUI) regionLabel() string {
	if m.region == "" {
		return WholeWorld
	}
	return m.region
}

func (m *ConsoleUI) writeMetadata() string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("WORLD STATE") + "\n\n")

	content.WriteString("Region:\n")
	content.WriteString(m.regionLabel() + "\n\n")

	content.WriteString("Dominant motifs:\n")
	if len(m.dominant) == 0 {
		content.WriteString("None active\n")
	}
	for _, mo := range m.dominant {
		content.WriteString(fmt.Sprintf("• %s (%.1f)\n", mo.Name, mo.Intensity))
	}
	content.WriteString("\n")

	content.WriteString("Recent events:\n")
	if len(m.recentEvents) == 0 {
		content.WriteString("None yet\n")
	}
	for _, ev := range m.recentEvents {
		content.WriteString(fmt.Sprintf("• %s\n  %s\n", ev.Type, humanize.Time(ev.Timestamp)))
	}

	content.WriteString("\n")
	content.WriteString("Commands:\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• Enter: Observe\n")
	content.WriteString("• /help: Help\n")
	content.WriteString("• /region: Change region\n")

	return content.String()
}

// writeChatContent rebuilds the narration log for the current viewport
// width.
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6 // Account for left(3) + right(3) padding

	var content strings.Builder
	content.WriteString(titleStyle.Render("MOTIF ENGINE") + "\n\n")
	content.WriteString("Observing: " + m.regionLabel() + "\n")
	content.WriteString("Type an action and press Enter; the world answers in kind.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(1, chatWidth-6))) + "\n\n")

	for _, entry := range m.log {
		if entry.speaker == "" {
			content.WriteString(userStyle.Render("You: ") + wordwrap.String(entry.text, chatWidth-6) + "\n\n")
			continue
		}
		wrapped := wordwrap.String(entry.text, max(10, chatWidth-len(entry.speaker)-2))
		content.WriteString(speakerStyle.Render(entry.speaker+": ") + narratorStyle.Render(wrapped) + "\n\n")
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func (m ConsoleUI) Init() tea.Cmd {
	if m.showRegionModal {
		return m.loadRegions()
	}
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle region modal first
	if m.showRegionModal {
		return m.updateRegionModal(msg)
	}

	// Handle quit modal second
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		// Pass mouse events to the viewports for scrolling and text
		// selection; components ignore events outside their bounds.
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		if !m.ready {
			m.ready = true
		}
		m.writeChatContent()
		m.metaViewport.SetContent(m.writeMetadata())

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			m.textarea.Reset()
			m.loading = true
			m.progressTick = 0

			if input != "" {
				m.log = append(m.log, logEntry{speaker: "", text: input})
			}
			m.writeChatContent()

			return m, tea.Batch(m.requestNarration(), progressTick())
		case tea.KeyCtrlY:
			return m, m.copyPrompt()
		}

	case narrationMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.writeChatContent()
			currentContent := m.chatViewport.View()
			errorMsg := errorStyle.Render("Error: "+msg.err.Error()) + "\n\n"
			m.chatViewport.SetContent(currentContent + errorMsg)
		} else {
			m.log = append(m.log, logEntry{speaker: AgentName, text: msg.text})
			m.writeChatContent()
		}
		m.chatViewport.GotoBottom()
		return m, m.refreshSnapshot()

	case commandResultMsg:
		m.loading = false
		if msg.err != nil {
			m.log = append(m.log, logEntry{speaker: AgentName, text: "Error: " + msg.err.Error()})
		} else {
			m.log = append(m.log, logEntry{speaker: AgentName, text: msg.text})
		}
		m.writeChatContent()
		return m, m.refreshSnapshot()

	case worldSnapshotMsg:
		if msg.err == nil {
			m.dominant = msg.dominant
			m.recentEvents = msg.events
			m.metaViewport.SetContent(m.writeMetadata())
		}

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	// Update components for non-mouse events
	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m *ConsoleUI) resize() {
	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(chatWidth - 4)
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd := strings.ToLower(strings.TrimSpace(input))
	m.textarea.Reset()

	switch cmd {
	case "/help":
		helpText := `
Commands:
• /help - Show this help
• /context - Show the synthesized narrative context
• /event - Generate a world event here
• /chaos - Inject a chaos event here
• /tick - Run a lifecycle sweep
• /region - Choose a different region
• Ctrl+Y - Copy the prompt text to the clipboard
• Ctrl+C - Quit

How to play:
• Type an action and press Enter
• The engine narrates from the motifs in play
`
		currentContent := m.chatViewport.View()
		m.chatViewport.SetContent(currentContent + titleStyle.Render("Help:") + helpText + "\n")
		m.chatViewport.GotoBottom()
		return m, nil

	case "/region":
		m.showRegionModal = true
		m.loadingRegions = true
		return m, m.loadRegions()

	case "/context":
		m.loading = true
		m.progressTick = 0
		m.writeChatContent()
		return m, tea.Batch(m.fetchContext(), progressTick())

	case "/event":
		m.loading = true
		m.progressTick = 0
		m.writeChatContent()
		return m, tea.Batch(m.generateEvent(), progressTick())

	case "/chaos":
		m.loading = true
		m.progressTick = 0
		m.writeChatContent()
		return m, tea.Batch(m.injectChaos(), progressTick())

	case "/tick":
		m.loading = true
		m.progressTick = 0
		m.writeChatContent()
		return m, tea.Batch(m.runTick(), progressTick())
	}

	return m, nil
}

func (m ConsoleUI) requestNarration() tea.Cmd {
	return func() tea.Msg {
		text, err := requestNarration(m.client, m.config.APIBaseURL, m.region)
		return narrationMsg{text, err}
	}
}

func (m ConsoleUI) fetchContext() tea.Cmd {
	return func() tea.Msg {
		text, err := fetchEnhancedContext(m.client, m.config.APIBaseURL, m.region, "large")
		return commandResultMsg{text, err}
	}
}

// copyPrompt puts the synthesized prompt text on the system clipboard
// so it can be pasted into an external LLM session.
func (m ConsoleUI) copyPrompt() tea.Cmd {
	return func() tea.Msg {
		text, err := fetchEnhancedContext(m.client, m.config.APIBaseURL, m.region, "large")
		if err != nil {
			return commandResultMsg{"", err}
		}
		if err := clipboard.WriteAll(text); err != nil {
			return commandResultMsg{"", err}
		}
		return commandResultMsg{"Prompt copied to clipboard.", nil}
	}
}

func (m ConsoleUI) generateEvent() tea.Cmd {
	return func() tea.Msg {
		ev, err := generateWorldEvent(m.client, m.config.APIBaseURL, m.region)
		if err != nil {
			return commandResultMsg{"", err}
		}
		return commandResultMsg{ev.Summary, nil}
	}
}

func (m ConsoleUI) injectChaos() tea.Cmd {
	return func() tea.Msg {
		ev, err := injectChaos(m.client, m.config.APIBaseURL, m.region)
		if err != nil {
			return commandResultMsg{"", err}
		}
		return commandResultMsg{ev.Summary, nil}
	}
}

func (m ConsoleUI) runTick() tea.Cmd {
	return func() tea.Msg {
		checked, transitions, err := runLifecycleTick(m.client, m.config.APIBaseURL)
		if err != nil {
			return commandResultMsg{"", err}
		}
		return commandResultMsg{fmt.Sprintf("Lifecycle sweep: %d motifs checked, %d transitions.", checked, transitions), nil}
	}
}

func (m ConsoleUI) refreshSnapshot() tea.Cmd {
	return func() tea.Msg {
		dominant, err := listDominantMotifs(m.client, m.config.APIBaseURL)
		if err != nil {
			return worldSnapshotMsg{err: err}
		}
		events, err := listRecentEvents(m.client, m.config.APIBaseURL, 5)
		if err != nil {
			return worldSnapshotMsg{err: err}
		}
		return worldSnapshotMsg{dominant: dominant, events: events}
	}
}

func (m ConsoleUI) loadRegions() tea.Cmd {
	return func() tea.Msg {
		regions, err := listRegions(m.client, m.config.APIBaseURL)
		return regionsLoadedMsg{regions, err}
	}
}

func (m ConsoleUI) updateRegionModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case regionsLoadedMsg:
		m.loadingRegions = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			// The whole world is always on offer.
			m.regions = append([]string{WholeWorld}, msg.regions...)
		}

	case tea.KeyMsg:
		if m.loadingRegions {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		if m.err != nil {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				m.showQuitModal = true
				return m, nil
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.selectedRegion > 0 {
				m.selectedRegion--
			}
		case tea.KeyDown:
			if m.selectedRegion < len(m.regions)-1 {
				m.selectedRegion++
			}
		case tea.KeyEnter:
			if len(m.regions) > 0 {
				choice := m.regions[m.selectedRegion]
				if choice == WholeWorld {
					m.region = ""
				} else {
					m.region = choice
				}
				m.showRegionModal = false
				if m.width > 0 && m.height > 0 {
					m.resize()
				}
				m.writeChatContent()
				m.metaViewport.SetContent(m.writeMetadata())
				m.textarea.Focus()
				m.ready = true
				return m, tea.Batch(textarea.Blink, m.refreshSnapshot())
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				if m.showRegionModal {
					return m, nil
				}
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit?"))
	content.WriteString("\n\n")
	content.WriteString("Leave the world to its own devices?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderRegionModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	if m.loadingRegions {
		content.WriteString(modalTitleStyle.Render("Loading Regions..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Asking the engine which regions it knows..."))
	} else if m.err != nil {
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(fmt.Sprintf("Failed to load regions: %v", m.err)))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	} else {
		content.WriteString(modalTitleStyle.Render("Select a Region"))
		content.WriteString("\n\n")

		for i, region := range m.regions {
			if i == m.selectedRegion {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", region)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", region)))
			}
			content.WriteString("\n")
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showRegionModal {
		return m.renderRegionModal()
	}

	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(1, chatWidth-4))),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar draws the animated bar shown while a request is in
// flight.
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30 // fallback before sizing
	}

	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
