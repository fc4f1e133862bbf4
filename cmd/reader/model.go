package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ilawngbayan/storybooks/internal/reading/models"
	"github.com/ilawngbayan/storybooks/internal/reading/navigator"
	"github.com/ilawngbayan/storybooks/pkg/readerclient"
)

// exitTimeout bounds the end-session call made after the program stops.
const exitTimeout = 3 * time.Second

const (
	readingHelp = "→/n next  ←/p back  f finish  r read again  q quit"
	gateHelp    = "type an answer  enter save  tab next question  esc back to the page"
)

// model is the Bubble Tea model for one book. Navigation goes through the
// reader, which posts progress as pages are reached.
type model struct {
	ctx    context.Context
	reader *readerclient.Reader

	// question gate
	selected int
	input    string
	answers  map[uint]string
	feedback *navigator.Feedback

	status      string
	failed      bool
	finished    *models.Progress
	interrupted bool
	width       int
}

func newModel(ctx context.Context, reader *readerclient.Reader) model {
	return model{ctx: ctx, reader: reader, answers: make(map[uint]string)}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.interrupted = true
			return m, tea.Quit
		}
		if m.reader.Navigator().ShowQuestions() {
			return m.updateGate(msg)
		}
		return m.updateReading(msg)
	}
	return m, nil
}

func (m model) updateReading(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var err error
	switch msg.String() {
	case "right", "n", "l", " ":
		err = m.reader.Next(m.ctx)
		if err == nil && m.reader.Navigator().ShowQuestions() {
			m.openGate()
		}
	case "left", "p", "h":
		err = m.reader.Prev(m.ctx)
	case "f":
		var p *models.Progress
		if p, err = m.reader.Finish(m.ctx); err == nil {
			m.finished = p
			m.setStatus(fmt.Sprintf("book complete: %d%%", p.PercentComplete), false)
			return m, tea.Quit
		}
	case "r":
		err = m.reader.ReadAgain(m.ctx)
	case "q", "esc":
		return m, tea.Quit
	default:
		return m, nil
	}
	m.report(err)
	return m, nil
}

func (m model) updateGate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	questions := m.reader.Navigator().Page().Questions
	if len(questions) == 0 {
		return m, nil
	}

	switch msg.Type {
	case tea.KeyEsc:
		m.report(m.reader.Prev(m.ctx))
	case tea.KeyTab, tea.KeyDown:
		m.selected = (m.selected + 1) % len(questions)
		m.input = m.answers[questions[m.selected].ID]
	case tea.KeyShiftTab, tea.KeyUp:
		m.selected = (m.selected + len(questions) - 1) % len(questions)
		m.input = m.answers[questions[m.selected].ID]
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.input += " "
	case tea.KeyRunes:
		m.input += string(msg.Runes)
	case tea.KeyEnter:
		return m.saveAnswer(questions)
	}
	return m, nil
}

// saveAnswer records the typed answer, moves to the next unanswered question
// and submits the gate once every question has an answer.
func (m model) saveAnswer(questions []models.Question) (tea.Model, tea.Cmd) {
	q := questions[m.selected]
	if answer := strings.TrimSpace(m.input); answer != "" {
		if err := m.reader.Answer(q.ID, answer); err != nil {
			m.report(err)
			return m, nil
		}
		m.answers[q.ID] = answer
	}

	for i := 1; i <= len(questions); i++ {
		j := (m.selected + i) % len(questions)
		if _, ok := m.answers[questions[j].ID]; !ok {
			m.selected = j
			m.input = ""
			return m, nil
		}
	}

	fb, err := m.reader.Submit(m.ctx)
	if err != nil {
		m.report(err)
		return m, nil
	}
	m.input = ""
	if fb.Passed {
		m.feedback = nil
		m.setStatus("correct!", false)
		return m, nil
	}

	wrong := 0
	for _, r := range fb.Results {
		if !r.Correct {
			wrong++
		}
	}
	m.feedback = fb
	m.setStatus(fmt.Sprintf("not quite: %d of %d wrong", wrong, len(fb.Results)), true)
	return m, nil
}

func (m *model) openGate() {
	m.selected = 0
	m.input = ""
	m.answers = make(map[uint]string)
	m.feedback = nil
}

func (m *model) report(err error) {
	if err != nil {
		m.setStatus(err.Error(), true)
		return
	}
	m.status = ""
}

func (m *model) setStatus(status string, failed bool) {
	m.status = status
	m.failed = failed
}

func (m model) View() string {
	nav := m.reader.Navigator()

	sections := []string{
		titleStyle.Render(m.reader.Book().Title) + "  " + mutedStyle.Render(position(nav)),
	}

	page := pageStyle
	if m.width > 4 {
		page = page.Width(m.width - 4)
	}
	if nav.State() == navigator.Complete {
		sections = append(sections, page.Render("The end."))
	} else {
		sections = append(sections, page.Render(nav.Page().Content))
	}

	help := readingHelp
	if nav.ShowQuestions() {
		sections = append(sections, m.renderGate())
		help = gateHelp
	}

	if m.status != "" {
		style := okStyle
		if m.failed {
			style = hotStyle
		}
		sections = append(sections, style.Render(m.status))
	}
	sections = append(sections, mutedStyle.Render(help))

	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

func (m model) renderGate() string {
	var lines []string
	for i, q := range m.reader.Navigator().Page().Questions {
		cursor := "  "
		if i == m.selected {
			cursor = "> "
		}
		lines = append(lines, cursor+q.QuestionText+m.mark(q.ID))
		for j, opt := range q.OptionList() {
			lines = append(lines, fmt.Sprintf("     %c. %s", 'A'+j, opt))
		}
		if answer, ok := m.answers[q.ID]; ok && i != m.selected {
			lines = append(lines, mutedStyle.Render("     answer: "+answer))
		}
	}
	lines = append(lines, "", "answer: "+m.input+"_")
	return gateStyle.Render(strings.Join(lines, "\n"))
}

func (m model) mark(questionID uint) string {
	if m.feedback == nil {
		return ""
	}
	for _, r := range m.feedback.Results {
		if r.QuestionID != questionID {
			continue
		}
		if r.Correct {
			return okStyle.Render("  ✓")
		}
		return hotStyle.Render("  ✗ wrong")
	}
	return ""
}

func position(nav *navigator.Navigator) string {
	if nav.State() == navigator.Complete {
		return fmt.Sprintf("the end (%d%%)", nav.PercentComplete())
	}
	return fmt.Sprintf("page %d/%d (%d%%)", nav.CurrentPage()+1, nav.TotalPages(), nav.PercentComplete())
}

// runReader drives the open reader until the user quits or ctx is cancelled.
// A regular quit ends the session with an awaited call; an interrupt sends the
// unload beacon instead.
func runReader(ctx context.Context, reader *readerclient.Reader, in io.Reader, out io.Writer) (*models.Progress, error) {
	p := tea.NewProgram(newModel(ctx, reader),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithoutSignalHandler(),
	)
	final, runErr := p.Run()
	m, _ := final.(model)

	exitCtx, cancel := context.WithTimeout(context.Background(), exitTimeout)
	defer cancel()

	if ctx.Err() != nil || m.interrupted {
		reader.Leave(exitCtx)
		return nil, nil
	}
	reader.Close(exitCtx)
	if runErr != nil {
		return nil, runErr
	}
	return m.finished, nil
}
