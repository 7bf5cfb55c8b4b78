package viz

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/ratectl/internal/config"
	"github.com/san-kum/ratectl/internal/ratecontrol"
	"github.com/san-kum/ratectl/internal/sim"
)

func builder(preset string) Builder {
	return func() (*sim.Loop, error) {
		s, sc, err := sim.FromConfig(config.GetPreset(preset))
		if err != nil {
			return nil, err
		}
		return s.Start(sc)
	}
}

func TestModelSteps(t *testing.T) {
	m, err := NewModel(builder("mfc"), "mfc", 10)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}

	next, _ := m.Update(TickMsg(time.Now()))
	m = next.(Model)
	if len(m.rates) != 10 {
		t.Fatalf("expected 10 samples after one frame, got %d", len(m.rates))
	}
	if m.last.Law != ratecontrol.LawMFC {
		t.Errorf("expected MFC law, got %v", m.last.Law)
	}

	view := m.View()
	if !strings.Contains(view, "MFC") || !strings.Contains(view, "F-hat") {
		t.Error("view should show the title and the MFC estimates")
	}
}

func TestModelKeys(t *testing.T) {
	m, err := NewModel(builder("step"), "step", 1)
	if err != nil {
		t.Fatal(err)
	}

	press := func(key string) {
		var msg tea.KeyMsg
		switch key {
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}

	press(" ")
	if m.running {
		t.Error("space should pause")
	}
	next, _ := m.Update(TickMsg(time.Now()))
	m = next.(Model)
	if len(m.rates) != 0 {
		t.Error("paused model must not step")
	}

	press("tab")
	if m.axis != ratecontrol.Pitch {
		t.Errorf("tab should select pitch, got %d", m.axis)
	}
	press("up")
	if m.speed != 2 {
		t.Errorf("up should double speed, got %d", m.speed)
	}

	theme := CurrentTheme.Name
	press("t")
	if CurrentTheme.Name == theme {
		t.Error("t should change theme")
	}
	SetTheme(theme)

	press(" ")
	next, _ = m.Update(TickMsg(time.Now()))
	m = next.(Model)
	press("r")
	if len(m.rates) != 0 || m.loop.Time() != 0 {
		t.Error("r should restart the scenario")
	}
}

func TestModelFinishes(t *testing.T) {
	m, err := NewModel(builder("step"), "step", 1000)
	if err != nil {
		t.Fatal(err)
	}
	next, _ := m.Update(TickMsg(time.Now()))
	m = next.(Model)
	if !m.done {
		t.Error("750-tick scenario should finish within one 1000-tick frame")
	}
	if !strings.Contains(m.View(), "FINISHED") {
		t.Error("view should report the finished run")
	}
}

func TestPlots(t *testing.T) {
	s, sc, err := sim.FromConfig(config.GetPreset("mfc"))
	if err != nil {
		t.Fatal(err)
	}
	sc.Duration = 0.5
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	res, err := s.Run(ctx, sc)
	if err != nil {
		t.Fatal(err)
	}

	if out := PlotAxis(res.Telemetry, ratecontrol.Roll, 60, 8); !strings.Contains(out, "roll rate") {
		t.Errorf("unexpected axis plot:\n%s", out)
	}
	if out := PlotTorque(res.Telemetry, ratecontrol.Yaw, 60, 5); !strings.Contains(out, "yaw torque") {
		t.Errorf("unexpected torque plot:\n%s", out)
	}
	if out := PlotFHat(res.Telemetry, ratecontrol.Pitch, 60, 5); !strings.Contains(out, "pitch f_hat") {
		t.Errorf("unexpected f_hat plot:\n%s", out)
	}
	if out := PlotAxis(nil, 0, 60, 8); !strings.Contains(out, "not enough") {
		t.Error("empty telemetry should be reported")
	}
}

func TestDecimate(t *testing.T) {
	in := make([]float64, 100)
	for i := range in {
		in[i] = float64(i)
	}
	out := decimate(in, 10)
	if len(out) != 10 || out[0] != 0 || out[9] != 90 {
		t.Errorf("decimate: got %v", out)
	}
	if len(decimate(in[:5], 10)) != 5 {
		t.Error("short input should pass through")
	}
}

func TestFlagsAndThemes(t *testing.T) {
	lit := Flags([3]bool{true, false, true})
	if strings.Count(lit, "●") != 2 || strings.Count(lit, "·") != 1 {
		t.Errorf("unexpected flags %q", lit)
	}

	names := ThemeNames()
	if len(names) != len(Themes) || names[0] != "cyberpunk" {
		t.Errorf("unexpected theme names %v", names)
	}
	defer SetTheme(CurrentTheme.Name)
	SetTheme(names[1])
	if CurrentTheme.Name != names[1] {
		t.Errorf("SetTheme: got %s", CurrentTheme.Name)
	}
	SetTheme("nonexistent")
	if CurrentTheme.Name != "cyberpunk" {
		t.Error("unknown theme should fall back to cyberpunk")
	}
}
