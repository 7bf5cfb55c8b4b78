package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/ratectl/internal/ratecontrol"
	"github.com/san-kum/ratectl/internal/sim"
)

const (
	historyCapacity = 500
	graphWidth      = 60
	frameRate       = 30
)

type TickMsg time.Time

// Builder constructs a fresh closed loop; the live view calls it on start
// and on every restart.
type Builder func() (*sim.Loop, error)

// Model steps a closed loop in real time and plots the selected axis.
type Model struct {
	build   Builder
	loop    *sim.Loop
	title   string
	axis    int
	speed   int // ticks per frame
	running bool
	done    bool
	err     error

	setpoints []float64
	rates     []float64
	torques   []float64
	last      ratecontrol.Diagnostics
	satPos    ratecontrol.Bool3
	satNeg    ratecontrol.Bool3
	satCount  int
	showHelp  bool
}

// NewModel starts the first loop. speed is the number of control ticks run
// per rendered frame.
func NewModel(build Builder, title string, speed int) (Model, error) {
	if speed < 1 {
		speed = 1
	}
	m := Model{build: build, title: title, speed: speed, running: true}
	if err := m.reset(); err != nil {
		return Model{}, err
	}
	return m, nil
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			if err := m.reset(); err != nil {
				m.err = err
			}
		case "tab":
			m.axis = (m.axis + 1) % 3
			m.setpoints = m.setpoints[:0]
			m.rates = m.rates[:0]
			m.torques = m.torques[:0]
		case "up", "k":
			m.speed *= 2
		case "down", "j":
			if m.speed > 1 {
				m.speed /= 2
			}
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running && !m.done && m.err == nil {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) reset() error {
	loop, err := m.build()
	if err != nil {
		return err
	}
	m.loop = loop
	m.done = false
	m.err = nil
	m.satCount = 0
	m.satPos, m.satNeg = ratecontrol.Bool3{}, ratecontrol.Bool3{}
	m.last = ratecontrol.Diagnostics{}
	m.setpoints = make([]float64, 0, historyCapacity)
	m.rates = make([]float64, 0, historyCapacity)
	m.torques = make([]float64, 0, historyCapacity)
	return nil
}

// advance runs speed ticks, stopping early at the end of the scenario or
// on a simulation error.
func (m *Model) advance() {
	for i := 0; i < m.speed; i++ {
		if m.loop.Done() {
			m.done = true
			return
		}
		if _, err := m.loop.Step(); err != nil {
			m.err = err
			return
		}
		if m.loop.Saturated() {
			m.satCount++
		}
		m.satPos, m.satNeg = m.loop.SaturationFlags()
		if d, ok := m.loop.Last(); ok {
			m.last = d
		}
		m.push()
	}
}

func (m *Model) push() {
	m.setpoints = appendCapped(m.setpoints, m.last.RateSetpoint[m.axis])
	m.rates = appendCapped(m.rates, m.last.Rate[m.axis])
	m.torques = appendCapped(m.torques, m.last.Torque[m.axis])
}

func appendCapped(s []float64, v float64) []float64 {
	s = append(s, v)
	if len(s) > historyCapacity {
		s = s[1:]
	}
	return s
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return lipgloss.NewStyle().Bold(true).Foreground(CurrentTheme.Error).Render("ABORTED")
	case m.done:
		return statusStyle(false).Render("FINISHED")
	case !m.running:
		return statusStyle(false).Render("PAUSED")
	default:
		return statusStyle(true).Render("RUNNING")
	}
}

func (m Model) View() string {
	var graphs strings.Builder
	if len(m.rates) > 1 {
		graphs.WriteString(asciigraph.PlotMany(
			[][]float64{decimate(m.setpoints, graphWidth), decimate(m.rates, graphWidth)},
			asciigraph.Height(10),
			asciigraph.Width(graphWidth),
			asciigraph.Caption(AxisNames[m.axis]+" rate: setpoint, measured"),
			asciigraph.SeriesColors(asciigraph.Cyan, asciigraph.Magenta),
		))
		graphs.WriteString("\n\n")
		graphs.WriteString(asciigraph.Plot(
			decimate(m.torques, graphWidth),
			asciigraph.Height(5),
			asciigraph.Width(graphWidth),
			asciigraph.Caption("torque"),
		))
	} else {
		graphs.WriteString("waiting for samples")
	}

	var s strings.Builder
	s.WriteString(headerStyle().Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(m.status() + "\n\n")

	s.WriteString(ProgressBar(m.loop.Progress(), 24) + "\n\n")

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.3fs", m.loop.Time()))
	row("Law", m.last.Law.String())
	row("Axis", AxisNames[m.axis])
	row("Setpoint", fmt.Sprintf("%+.3f", m.last.RateSetpoint[m.axis]))
	row("Rate", fmt.Sprintf("%+.3f", m.last.Rate[m.axis]))
	row("Torque", fmt.Sprintf("%+.4f", m.last.Torque[m.axis]))
	row("Integral", fmt.Sprintf("%+.4f", m.last.I[m.axis]))
	if m.last.Law == ratecontrol.LawMFC && m.axis != ratecontrol.Yaw {
		row("F-hat", fmt.Sprintf("%+.4f", m.last.FHat[m.axis]))
		row("Curvature", fmt.Sprintf("%+.4f", m.last.SetpointCurvature[m.axis]))
		row("Window", fmt.Sprintf("%.3fs", m.last.WindowSpan))
	}
	row("Landed", fmt.Sprintf("%v", m.last.Landed))
	row("Saturated", fmt.Sprintf("%d ticks", m.satCount))
	row("Sat +/-", Flags(m.satPos)+"  "+Flags(m.satNeg))
	row("Speed", fmt.Sprintf("%dx", m.speed))
	if m.err != nil {
		s.WriteString("\n" + lipgloss.NewStyle().Foreground(CurrentTheme.Error).Render(m.err.Error()) + "\n")
	}
	s.WriteString(helpStyle.Render("SP:Pause R:Restart Q:Quit\nTab:Axis T:Theme ?:Help"))

	main := lipgloss.JoinHorizontal(lipgloss.Top, graphStyle.Render(graphs.String()), statsStyle.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + main
	}
	return main
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  R        - Restart scenario         ║
║  Q        - Quit                     ║
║  Tab      - Cycle roll/pitch/yaw     ║
║  Up/K     - Double playback speed    ║
║  Down/J   - Halve playback speed     ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`

// Run opens the live view in the alternate screen.
func Run(build Builder, title string, speed int) error {
	m, err := NewModel(build, title, speed)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
