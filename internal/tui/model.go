// Package tui is the terminal chat client over the RAG engine.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"policy-rag/internal/rag"
)

// DefaultTimeout bounds one question, expansion through answer.
const DefaultTimeout = 2 * time.Minute

// exchange is one question with its outcome.
type exchange struct {
	question string
	resp     rag.AskResponse
	err      error
}

type answerMsg struct {
	question string
	resp     rag.AskResponse
}

type errMsg struct {
	question string
	err      error
}

// Model is the Bubble Tea model for the chat client.
type Model struct {
	engine  rag.Engine
	timeout time.Duration

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	history     []exchange
	pending     string
	showDetails bool
	ready       bool
	status      string
}

// New creates a chat model. A non-positive timeout uses DefaultTimeout.
func New(engine rag.Engine, timeout time.Duration) Model {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about your policy and press Enter"
	ti.CharLimit = 500
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	return Model{
		engine:   engine,
		timeout:  timeout,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		status:   "Enter: ask · Tab: toggle clause text and queries · Esc: quit",
	}
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and engine events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		fw, fh := transcriptStyle.GetFrameSize()
		m.viewport.Width = max(20, msg.Width-fw)
		m.viewport.Height = max(3, msg.Height-fh-3) // header, input and status lines
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyTab:
			m.showDetails = !m.showDetails
			m.refresh()
			return m, nil
		case tea.KeyEnter:
			question := strings.TrimSpace(m.input.Value())
			if question == "" || m.pending != "" {
				return m, nil
			}
			m.pending = question
			m.input.Reset()
			m.refresh()
			return m, tea.Batch(m.ask(question), m.spinner.Tick)
		case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case answerMsg:
		m.history = append(m.history, exchange{question: msg.question, resp: msg.resp})
		m.pending = ""
		m.refresh()
		return m, nil

	case errMsg:
		m.history = append(m.history, exchange{question: msg.question, err: msg.err})
		m.pending = ""
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if m.pending == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the transcript, the input line and the status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("Policy Clause Assistant")
	transcript := transcriptStyle.Render(m.viewport.View())
	return header + "\n" + transcript + "\n" + m.input.View() + "\n" + statusStyle.Render(m.status)
}

// ask runs one question against the engine off the UI goroutine.
func (m Model) ask(question string) tea.Cmd {
	engine, timeout := m.engine, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		resp, err := engine.Ask(ctx, rag.AskRequest{Question: question})
		if err != nil {
			return errMsg{question: question, err: err}
		}
		return answerMsg{question: question, resp: resp}
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.render())
	m.viewport.GotoBottom()
}

func (m Model) render() string {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	wrap := lipgloss.NewStyle().Width(width)

	var b strings.Builder
	for _, ex := range m.history {
		b.WriteString(questionStyle.Render("You: ") + wrap.Render(ex.question) + "\n")
		if ex.err != nil {
			b.WriteString(errorStyle.Render("Error: "+ex.err.Error()) + "\n\n")
			continue
		}
		b.WriteString(wrap.Render(ex.resp.Answer) + "\n")
		b.WriteString(m.renderSources(ex.resp, wrap))
		b.WriteString("\n")
	}
	if m.pending != "" {
		b.WriteString(questionStyle.Render("You: ") + wrap.Render(m.pending) + "\n")
		b.WriteString(m.spinner.View() + " searching clauses...\n")
	}
	if b.Len() == 0 {
		return "No questions yet."
	}
	return b.String()
}

func (m Model) renderSources(resp rag.AskResponse, wrap lipgloss.Style) string {
	var b strings.Builder
	if len(resp.SourceDocuments) > 0 {
		b.WriteString(sourceStyle.Render(fmt.Sprintf("Sources (%d):", len(resp.SourceDocuments))) + "\n")
	}
	for _, doc := range resp.SourceDocuments {
		label := fmt.Sprintf("  %s %s  [%s]",
			rag.MetaValue(doc.Metadata, rag.DefaultSection, rag.SectionKeys...),
			rag.MetaValue(doc.Metadata, rag.DefaultTitle, rag.TitleKeys...),
			rag.MetaValue(doc.Metadata, rag.DefaultSource, rag.SourceKeys...),
		)
		b.WriteString(sourceStyle.Render(label) + "\n")
		if m.showDetails {
			b.WriteString(detailStyle.Render(wrap.Render(doc.Content)) + "\n")
		}
	}
	if m.showDetails && len(resp.DebugQueries) > 0 {
		b.WriteString(detailStyle.Render("Queries: "+strings.Join(resp.DebugQueries, " | ")) + "\n")
	}
	return b.String()
}

var (
	headerStyle     = lipgloss.NewStyle().Bold(true)
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	sourceStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	detailStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	spinnerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)
