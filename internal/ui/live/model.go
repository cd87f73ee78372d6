package live

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"storywriter/internal/story"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	promptHeight  = 4
)

// Model renders the story writer form and live output using Bubble Tea.
type Model struct {
	prompt   textarea.Model
	output   viewport.Model
	spinner  spinner.Model
	form     formState
	state    story.State
	updates  <-chan story.State
	run      int
	submit   SubmitFunc
	path     string
	autoRun  bool
	quitDone bool
	noColor  bool
	width    int
	height   int
}

// Options configures the live UI model.
type Options struct {
	NoColor bool
	// Submit starts a run; the model submits nothing when it is nil.
	Submit SubmitFunc
	// Prefill seeds the form.
	Prefill story.Request
	// AutoSubmit starts a run with Prefill as soon as the program starts.
	AutoSubmit bool
	// QuitWhenDone exits once the snapshot channel of a run is closed.
	QuitWhenDone bool
}

// NewModel constructs a live UI model.
func NewModel(opts Options) Model {
	ta := textarea.New()
	ta.Placeholder = promptPlaceholder
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(promptHeight)
	ta.SetValue(opts.Prefill.Story)
	ta.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	m := Model{
		prompt:   ta,
		output:   viewport.New(defaultWidth, defaultHeight/2),
		spinner:  sp,
		form:     formState{}.withPages(opts.Prefill.Pages),
		submit:   opts.Submit,
		path:     opts.Prefill.Path,
		autoRun:  opts.AutoSubmit,
		quitDone: opts.QuitWhenDone,
		noColor:  opts.NoColor,
	}
	m.resize(defaultWidth, defaultHeight)
	m.refreshOutput()
	return m
}

// State returns the latest run snapshot.
func (m Model) State() story.State {
	return m.state
}

// Init starts the spinner and, when requested, the prefilled run.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink}
	if m.autoRun {
		cmds = append(cmds, func() tea.Msg { return submitMsg{} })
	}
	return tea.Batch(cmds...)
}

// submitMsg asks the model to start a run from the form.
type submitMsg struct{}

// Update handles keys, window changes and run snapshots.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(typed.Width, typed.Height)
		m.refreshOutput()
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(typed)
	case submitMsg:
		return m.startRun()
	case StateMsg:
		if typed.run != m.run {
			// A newer run replaced this one; keep draining its stream.
			return m, waitForState(typed.updates, typed.run)
		}
		wasStarted := m.state.Started
		m.state = typed.State
		m.refreshOutput()
		cmds := []tea.Cmd{waitForState(m.updates, m.run)}
		if m.state.Started && !wasStarted {
			cmds = append(cmds, m.spinner.Tick)
		}
		return m, tea.Batch(cmds...)
	case runEndedMsg:
		if typed.run != m.run {
			return m, nil
		}
		m.updates = nil
		if m.quitDone {
			return m, tea.Quit
		}
		return m, nil
	case spinner.TickMsg:
		if !m.state.Started {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(typed)
		m.refreshOutput()
		return m, cmd
	}
	var cmd tea.Cmd
	m.output, cmd = m.output.Update(msg)
	return m, cmd
}

// handleKey routes key presses to the focused control.
func (m Model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "ctrl+s":
		return m.startRun()
	case "tab", "shift+tab":
		if m.form.focus == focusPrompt {
			m.form.focus = focusPages
			m.prompt.Blur()
			return m, nil
		}
		m.form.focus = focusPrompt
		return m, m.prompt.Focus()
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.output, cmd = m.output.Update(key)
		return m, cmd
	}
	if m.form.focus == focusPages {
		m.form = applyPagesKey(m.form, key.String())
		return m, nil
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(key)
	return m, cmd
}

// applyPagesKey changes the page selection for selector keys.
func applyPagesKey(form formState, key string) formState {
	switch key {
	case "left", "h", "down", "j":
		return form.stepPages(-1)
	case "right", "l", "up", "k":
		return form.stepPages(1)
	case "0":
		return form.selectPages(story.MaxPages)
	}
	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		return form.selectPages(int(key[0] - '0'))
	}
	return form
}

// startRun submits the form when the start action is enabled.
func (m Model) startRun() (tea.Model, tea.Cmd) {
	if !m.canStart() || m.submit == nil {
		return m, nil
	}
	req := m.form.request(m.prompt.Value(), m.path)
	m.state = story.Begin(req)
	m.run++
	m.updates = m.submit(req)
	m.refreshOutput()
	return m, tea.Batch(waitForState(m.updates, m.run), m.spinner.Tick)
}

// canStart mirrors the disabled state of the start button. It turns true as
// soon as a runFinish frame arrives, even while the stream is still open.
func (m Model) canStart() bool {
	candidate := m.state
	candidate.Story = m.prompt.Value()
	candidate.Pages = m.form.pages
	return candidate.CanStart()
}

// View renders the live UI.
func (m Model) View() string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("141")).
		Padding(0, 1)
	if m.noColor {
		box = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1)
	}
	form := lipgloss.JoinVertical(lipgloss.Left,
		m.prompt.View(),
		renderPages(m.form, m.noColor),
		renderStart(m.canStart(), m.noColor),
	)
	return lipgloss.JoinVertical(lipgloss.Left,
		renderHeader(m.noColor),
		box.Render(form),
		box.Render(m.output.View()),
		renderFooter(m.noColor),
	)
}

// resize lays out the prompt and output box for the terminal size.
func (m *Model) resize(width, height int) {
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	m.width = width
	m.height = height
	inner := max(width-4, 10)
	m.prompt.SetWidth(inner)
	m.output.Width = inner
	m.output.Height = max(height-promptHeight-10, 3)
}

// refreshOutput re-renders the output box and keeps the newest line visible.
func (m *Model) refreshOutput() {
	spin := ""
	if m.state.Started {
		spin = strings.TrimSpace(m.spinner.View())
	}
	m.output.SetContent(renderOutput(m.state, spin, m.noColor))
	m.output.GotoBottom()
}

// waitForState blocks until the next snapshot is available.
func waitForState(updates <-chan story.State, run int) tea.Cmd {
	return func() tea.Msg {
		if updates == nil {
			return nil
		}
		state, ok := <-updates
		if !ok {
			return runEndedMsg{run: run}
		}
		return StateMsg{State: state, run: run, updates: updates}
	}
}
