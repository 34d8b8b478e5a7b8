// Package tui hosts the live terminal front ends: a training monitor
// fed by trainer events and an interactive rollout explorer.
package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/fordyn/internal/train"
	"github.com/san-kum/fordyn/internal/viz"
)

type eventMsg train.Event

// closedMsg arrives when the trainer has returned and the event
// channel is closed.
type closedMsg struct{}

// Model displays a training run as it progresses. Quitting cancels the
// run's context and keeps draining events until the trainer returns,
// so the trainer's blocking sends never wedge.
type Model struct {
	events  <-chan train.Event
	cancel  context.CancelFunc
	dataset string

	last      train.Event
	trainHist []float64
	valHist   []float64
	lossNames []string

	stopping bool
	done     bool
	width    int
}

// NewTraining builds a monitor for a run whose events arrive on the
// given channel. cancel stops the trainer when the user quits.
func NewTraining(events <-chan train.Event, cancel context.CancelFunc, dataset string) Model {
	return Model{
		events:  events,
		cancel:  cancel,
		dataset: dataset,
		width:   80,
	}
}

func (m Model) Init() tea.Cmd {
	return m.waitForEvent()
}

func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return closedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if !m.stopping {
				m.stopping = true
				m.cancel()
			}
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case eventMsg:
		ev := train.Event(msg)
		m.last = ev
		m.trainHist = append(m.trainHist, ev.TrainTotal)
		m.valHist = append(m.valHist, ev.ValTotal)
		if m.lossNames == nil {
			for name := range ev.Train {
				m.lossNames = append(m.lossNames, name)
			}
			sort.Strings(m.lossNames)
		}
		return m, m.waitForEvent()
	case closedMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) View() string {
	var s strings.Builder
	s.WriteString(viz.HeaderStyle.Render("TRAINING "+m.dataset) + "\n")

	switch {
	case m.done && m.stopping:
		s.WriteString(viz.StatusStopped.Render("STOPPED") + "\n\n")
	case m.done:
		s.WriteString(viz.StatusDone.Render("DONE") + "\n\n")
	case m.stopping:
		s.WriteString(viz.StatusStopped.Render("STOPPING") + "\n\n")
	default:
		s.WriteString(viz.StatusRunning.Render("RUNNING") + "\n\n")
	}

	if m.last.Epochs == 0 {
		s.WriteString(viz.Subtle.Render("waiting for the first epoch...") + "\n")
		s.WriteString("\n" + viz.KeyHint.Render("q: stop"))
		return s.String()
	}

	frac := float64(m.last.Epoch) / float64(m.last.Epochs)
	s.WriteString(fmt.Sprintf("%s %s %s\n",
		viz.MetricLabel.Render(fmt.Sprintf("epoch %3d/%d", m.last.Epoch, m.last.Epochs)),
		viz.ProgressBar(frac, 30),
		viz.MetricValue.Render(m.last.Elapsed.Truncate(time.Millisecond*100).String()),
	))
	s.WriteString("\n")

	if len(m.trainHist) > 1 {
		chart := asciigraph.Plot(m.trainHist, asciigraph.Height(6), asciigraph.Width(48), asciigraph.Caption("train loss"))
		s.WriteString(chart + "\n\n")
	}
	if len(m.valHist) > 1 && m.last.ValTotal > 0 {
		s.WriteString(viz.MetricLabel.Render("val ") + viz.SparklineChart(m.valHist, 48) + "\n\n")
	}

	s.WriteString(viz.Separator(54) + "\n")
	for _, name := range m.lossNames {
		line := fmt.Sprintf("%-14s train %-10.6f val %-10.6f", name, m.last.Train[name], m.last.Val[name])
		s.WriteString("  " + viz.MetricLabel.Render(line) + "\n")
	}
	s.WriteString(fmt.Sprintf("  %s %s   %s %s\n",
		viz.MetricLabel.Render("total train"), viz.MetricValue.Render(fmt.Sprintf("%.6f", m.last.TrainTotal)),
		viz.MetricLabel.Render("val"), viz.MetricValue.Render(fmt.Sprintf("%.6f", m.last.ValTotal)),
	))

	s.WriteString("\n" + viz.KeyHint.Render("q: stop training and keep the current weights"))
	return s.String()
}
