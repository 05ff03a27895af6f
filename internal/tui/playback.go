package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/replicator/internal/analysis"
	"github.com/san-kum/replicator/internal/dynamo"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

// strategyStyles colour the share bars, one per strategy.
var strategyStyles = [3]lipgloss.Style{green, yellow, magenta}

const (
	historyLen = 60
	maxSpeed   = 64
)

type model struct {
	title  string
	times  []float64
	states []dynamo.State

	frame   int
	paused  bool
	speed   int
	history []float64

	width  int
	height int
}

func newPlayback(title string, times []float64, states []dynamo.State) model {
	return model{
		title:   title,
		times:   times,
		states:  states,
		speed:   1,
		history: make([]float64, 0, historyLen),
		width:   80,
		height:  24,
	}
}

func (m model) Init() tea.Cmd { return tick() }

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(16*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if !m.paused {
			m.advance(m.speed)
		}
		return m, tick()
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case " ":
		m.paused = !m.paused
	case "+", "=":
		if m.speed < maxSpeed {
			m.speed *= 2
		}
	case "-", "_":
		if m.speed > 1 {
			m.speed /= 2
		}
	case "right", "l":
		m.advance(10 * m.speed)
	case "left", "h":
		m.seek(m.frame - 10*m.speed)
	case "r":
		m.seek(0)
		m.paused = false
	case "end", "G":
		m.seek(len(m.states) - 1)
	}
	return m, nil
}

// advance moves forward n frames and stops on the last one.
func (m *model) advance(n int) {
	for i := 0; i < n && m.frame < len(m.states)-1; i++ {
		m.frame++
		m.record()
	}
}

func (m *model) seek(frame int) {
	if frame < 0 {
		frame = 0
	}
	if last := len(m.states) - 1; frame > last {
		frame = last
	}
	if frame < 0 {
		frame = 0
	}
	m.frame = frame
	m.history = m.history[:0]
	start := frame - historyLen + 1
	if start < 0 {
		start = 0
	}
	for i := start; i <= frame && i < len(m.states); i++ {
		m.history = append(m.history, m.states[i][0])
	}
}

func (m *model) record() {
	m.history = append(m.history, m.states[m.frame][0])
	if len(m.history) > historyLen {
		m.history = m.history[1:]
	}
}

func (m model) done() bool { return m.frame >= len(m.states)-1 }

func (m model) View() string {
	var b strings.Builder

	if len(m.states) == 0 {
		return "\n   " + dim.Render("empty trajectory") + "\n"
	}

	statusIcon := green.Render("●")
	statusText := green.Render("playing")
	switch {
	case m.done():
		statusIcon = dim.Render("■")
		statusText = dim.Render("finished")
	case m.paused:
		statusIcon = yellow.Render("○")
		statusText = yellow.Render("paused")
	}
	b.WriteString(fmt.Sprintf("\n   %s %s  %s  %s\n",
		statusIcon, cyan.Render(m.title), statusText, dim.Render(fmt.Sprintf("x%d", m.speed))))

	total := m.times[len(m.times)-1]
	progress := 1.0
	if len(m.states) > 1 {
		progress = float64(m.frame) / float64(len(m.states)-1)
	}
	barWidth := 36
	filled := int(progress * float64(barWidth))
	timeStr := fmt.Sprintf("t=%.2f/%.2f", m.times[m.frame], total)
	bar := cyan.Render(strings.Repeat("━", filled)) + dimmer.Render(strings.Repeat("─", barWidth-filled))
	b.WriteString(fmt.Sprintf("   %s %s\n\n", bar, dim.Render(timeStr)))

	cw, ch := m.canvasSize()
	portrait := analysis.Portrait([][]dynamo.State{m.states[:m.frame+1]}, cw, ch)
	for _, row := range strings.Split(strings.TrimSuffix(portrait, "\n"), "\n") {
		b.WriteString("   " + row + "\n")
	}
	b.WriteString("\n")

	x := m.states[m.frame]
	for i, v := range x {
		b.WriteString(fmt.Sprintf("   %s %s %s\n",
			dim.Render(fmt.Sprintf("x%d", i)),
			shareBar(v, 30, strategyStyles[i%len(strategyStyles)]),
			white.Render(fmt.Sprintf("%.4f", v))))
	}

	if len(m.history) > 1 {
		b.WriteString(fmt.Sprintf("   %s %s\n", dim.Render("x0"), cyan.Render(sparkline(m.history, 24))))
	}

	b.WriteString("\n" + dim.Render("   space pause  ±speed  ←→ seek  r restart  q quit") + "\n")

	return b.String()
}

// canvasSize keeps the triangle roughly equilateral on a terminal whose cells
// are about twice as tall as they are wide.
func (m model) canvasSize() (int, int) {
	ch := m.height - 14
	if ch < 10 {
		ch = 10
	}
	cw := int(float64(ch) * 2.3)
	if limit := m.width - 6; cw > limit && limit >= 20 {
		cw = limit
	}
	return cw, ch
}

func shareBar(v float64, width int, style lipgloss.Style) string {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	filled := int(v * float64(width))
	return style.Render(strings.Repeat("█", filled)) + dimmer.Render(strings.Repeat("─", width-filled))
}

func sparkline(data []float64, width int) string {
	if len(data) == 0 {
		return ""
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	rang := maxVal - minVal
	if rang == 0 {
		rang = 1
	}
	step := len(data) / width
	if step < 1 {
		step = 1
	}
	var sb strings.Builder
	for i := 0; i < width && i*step < len(data); i++ {
		v := data[i*step]
		idx := int((v - minVal) / rang * 7)
		if idx > 7 {
			idx = 7
		}
		if idx < 0 {
			idx = 0
		}
		sb.WriteRune(chars[idx])
	}
	return sb.String()
}

// RunPlayback replays a stored trajectory in the terminal.
func RunPlayback(title string, times []float64, states []dynamo.State) error {
	if len(times) != len(states) {
		return dynamo.InvalidArgument("have %d times for %d states", len(times), len(states))
	}
	p := tea.NewProgram(newPlayback(title, times, states), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
