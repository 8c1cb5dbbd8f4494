package cli

import (
	"context"
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/delegraph/delegraph/pkg/graph"
	"github.com/delegraph/delegraph/pkg/pipeline"
)

// sparkChars maps residual magnitudes to bar heights for the history strip.
var sparkChars = []rune("▁▂▃▄▅▆▇█")

// =============================================================================
// Watch Model - Live convergence view for the iterative engine
// =============================================================================

// iterationMsg reports one completed sweep of the iterative engine.
type iterationMsg struct {
	iteration int
	residual  float64
}

// doneMsg reports pipeline completion.
type doneMsg struct {
	result *pipeline.Result
	err    error
}

// watchModel is the bubbletea model for the live convergence view.
type watchModel struct {
	nodeCount int
	tolerance float64

	iteration int
	residual  float64
	history   []float64

	done   bool
	result *pipeline.Result
	err    error

	iterations <-chan iterationMsg
	results    <-chan doneMsg
}

// Init starts listening for engine events.
func (m watchModel) Init() tea.Cmd {
	return m.wait()
}

// wait blocks until the engine reports a sweep or the run completes.
func (m watchModel) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-m.iterations:
			return msg
		case msg := <-m.results:
			return msg
		}
	}
}

// Update handles engine events and key presses.
func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case iterationMsg:
		m.iteration = msg.iteration
		m.residual = msg.residual
		m.history = append(m.history, msg.residual)
		if len(m.history) > 60 {
			m.history = m.history[len(m.history)-60:]
		}
		return m, m.wait()

	case doneMsg:
		m.done = true
		m.result = msg.result
		m.err = msg.err
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.err = context.Canceled
			return m, tea.Quit
		}
	}
	return m, nil
}

// View renders the convergence state.
func (m watchModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render("Resolving") + StyleDim.Render(fmt.Sprintf(" · %d nodes · iterative engine", m.nodeCount)) + "\n\n")
	b.WriteString(fmt.Sprintf("  iteration  %s\n", StyleNumber.Render(fmt.Sprintf("%d", m.iteration))))
	b.WriteString(fmt.Sprintf("  residual   %s\n", StyleNumber.Render(fmt.Sprintf("%.3e", m.residual))))
	b.WriteString("\n  " + sparkline(m.history) + "\n\n")
	b.WriteString(StyleDim.Render("  q to abort") + "\n")
	return b.String()
}

// sparkline renders residual history on a log scale. Residuals span many
// orders of magnitude, so a linear scale would flatline immediately.
func sparkline(history []float64) string {
	if len(history) == 0 {
		return ""
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	logs := make([]float64, len(history))
	for i, r := range history {
		l := math.Log10(math.Max(r, 1e-300))
		logs[i] = l
		lo = math.Min(lo, l)
		hi = math.Max(hi, l)
	}

	var b strings.Builder
	for _, l := range logs {
		idx := 0
		if hi > lo {
			idx = int((l - lo) / (hi - lo) * float64(len(sparkChars)-1))
		}
		b.WriteRune(sparkChars[idx])
	}
	return StyleHighlight.Render(b.String())
}

// watchResolve runs the pipeline with a live convergence view. The engine's
// per-iteration callback feeds the TUI; the pipeline result is returned once
// the run completes or the user aborts.
func watchResolve(ctx context.Context, runner *pipeline.Runner, g *graph.Graph, opts pipeline.Options) (*pipeline.Result, error) {
	iterations := make(chan iterationMsg, 64)
	results := make(chan doneMsg, 1)

	opts.OnIteration = func(iteration int, residual float64) {
		// Never block the engine on a slow terminal.
		select {
		case iterations <- iterationMsg{iteration: iteration, residual: residual}:
		default:
		}
	}

	go func() {
		result, err := runner.Execute(ctx, g, opts)
		results <- doneMsg{result: result, err: err}
	}()

	model := watchModel{
		nodeCount:  g.NodeCount(),
		tolerance:  opts.Tolerance,
		iterations: iterations,
		results:    results,
	}
	final, err := tea.NewProgram(model, tea.WithContext(ctx)).Run()
	if err != nil {
		return nil, err
	}

	m := final.(watchModel)
	if m.result == nil && m.err == nil {
		// User aborted before the run finished.
		m.err = context.Canceled
	}
	return m.result, m.err
}
