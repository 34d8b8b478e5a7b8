package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/fordyn/internal/analysis"
	"github.com/san-kum/fordyn/internal/dataset"
	"github.com/san-kum/fordyn/internal/vehicle"
	"github.com/san-kum/fordyn/internal/viz"
)

const (
	viewSegments = iota
	viewCharts
)

// segmentView caches one segment's predictions and per-state fit.
type segmentView struct {
	out  map[string][]float64
	rmse map[string]float64
	max  map[string]float64
	err  error
}

// Explorer browses a dataset segment by segment, charting each body
// state's one-step predictions against the log.
type Explorer struct {
	model *vehicle.Model
	ds    *dataset.Dataset

	view     int
	cursor   int
	stateIdx int
	cache    map[int]*segmentView

	width  int
	height int
}

// NewExplorer builds the browser for a trained model over a loaded
// dataset.
func NewExplorer(m *vehicle.Model, ds *dataset.Dataset) *Explorer {
	return &Explorer{
		model:  m,
		ds:     ds,
		cache:  make(map[int]*segmentView),
		width:  80,
		height: 24,
	}
}

func (e *Explorer) Init() tea.Cmd { return nil }

func (e *Explorer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return e.handleKey(msg)
	case tea.WindowSizeMsg:
		e.width = msg.Width
		e.height = msg.Height
	}
	return e, nil
}

func (e *Explorer) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch e.view {
	case viewSegments:
		return e.segmentsKey(msg)
	case viewCharts:
		return e.chartsKey(msg)
	}
	return e, nil
}

func (e *Explorer) segmentsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return e, tea.Quit
	case "up", "k":
		if e.cursor > 0 {
			e.cursor--
		}
	case "down", "j":
		if e.cursor < len(e.ds.Segments)-1 {
			e.cursor++
		}
	case "enter", " ":
		if len(e.ds.Segments) > 0 {
			e.view = viewCharts
		}
	}
	return e, nil
}

func (e *Explorer) chartsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return e, tea.Quit
	case "q", "esc":
		e.view = viewSegments
	case "tab":
		e.stateIdx = (e.stateIdx + 1) % len(vehicle.StateNames)
	case "]", "right", "l":
		if e.cursor < len(e.ds.Segments)-1 {
			e.cursor++
		}
	case "[", "left", "h":
		if e.cursor > 0 {
			e.cursor--
		}
	}
	return e, nil
}

// predict runs the model over the selected segment once and caches the
// outcome, including failures.
func (e *Explorer) predict(i int) *segmentView {
	if sv, ok := e.cache[i]; ok {
		return sv
	}
	sv := &segmentView{
		rmse: make(map[string]float64, len(vehicle.StateNames)),
		max:  make(map[string]float64, len(vehicle.StateNames)),
	}
	seg := e.ds.Segments[i]
	sv.out, sv.err = e.model.Predict(seg.Series)
	if sv.err == nil {
		for _, state := range vehicle.StateNames {
			pred := sv.out[state+"_hat_next"]
			col := seg.Series[state]
			first := len(col) - len(pred)
			rmse, max := analysis.NewRMSE(), analysis.NewMaxError()
			for k := 0; k+1 < len(pred); k++ {
				rmse.Observe(pred[k], col[first+k+1])
				max.Observe(pred[k], col[first+k+1])
			}
			sv.rmse[state] = rmse.Value()
			sv.max[state] = max.Value()
		}
	}
	e.cache[i] = sv
	return sv
}

func (e *Explorer) View() string {
	switch e.view {
	case viewCharts:
		return e.chartsView()
	default:
		return e.segmentsView()
	}
}

func (e *Explorer) segmentsView() string {
	var s strings.Builder
	s.WriteString(viz.HeaderStyle.Render("SEGMENTS") + "\n\n")

	if len(e.ds.Segments) == 0 {
		s.WriteString(viz.Subtle.Render("  (no segments)") + "\n")
		s.WriteString("\n" + viz.KeyHint.Render("q: quit"))
		return s.String()
	}

	ts := e.model.SampleTime()
	for i, seg := range e.ds.Segments {
		line := fmt.Sprintf("%-24s %6d samples  %7.1fs", seg.Name, seg.Len(), float64(seg.Len())*ts)
		if i == e.cursor {
			s.WriteString(viz.MetricValue.Render("> "+line) + "\n")
		} else {
			s.WriteString(viz.MetricLabel.Render("  "+line) + "\n")
		}
	}

	s.WriteString("\n" + viz.KeyHint.Render("enter: chart predictions  j/k: move  q: quit"))
	return s.String()
}

func (e *Explorer) chartsView() string {
	seg := e.ds.Segments[e.cursor]
	state := vehicle.StateNames[e.stateIdx]
	sv := e.predict(e.cursor)

	var s strings.Builder
	s.WriteString(viz.HeaderStyle.Render(strings.ToUpper(seg.Name)) + "\n\n")

	if sv.err != nil {
		s.WriteString(viz.StatusStopped.Render("prediction failed") + "\n")
		s.WriteString(viz.Subtle.Render("  "+sv.err.Error()) + "\n")
		s.WriteString("\n" + viz.KeyHint.Render("[ ]: switch segment  q: back"))
		return s.String()
	}

	pred := sv.out[state+"_hat_next"]
	col := seg.Series[state]
	first := len(col) - len(pred)
	// The last prediction has no logged successor; chart the scored pairs.
	if n := len(pred); n > 1 {
		s.WriteString(viz.Compare(col[first+1:], pred[:n-1], state))
		s.WriteString("\n\n")
	} else {
		s.WriteString(viz.Subtle.Render("segment too short to chart") + "\n\n")
	}

	s.WriteString(fmt.Sprintf("  %s %s   %s %s\n",
		viz.MetricLabel.Render("rmse"), viz.MetricValue.Render(fmt.Sprintf("%.5f", sv.rmse[state])),
		viz.MetricLabel.Render("max"), viz.MetricValue.Render(fmt.Sprintf("%.5f", sv.max[state])),
	))

	s.WriteString("\n" + viz.KeyHint.Render("tab: next state  [ ]: switch segment  q: back"))
	return s.String()
}
