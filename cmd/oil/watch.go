package main

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	cl "oilrush/internal/cli"
	"oilrush/internal/game"
)

type dashboardFetcher func(ctx context.Context) (game.Dashboard, error)

type dashboardMsg struct {
	dash game.Dashboard
	err  error
}

type refreshMsg struct {
	gen int
}

// watchModel polls the dashboard on an interval. gen invalidates a pending
// refresh tick when the user forces a reload.
type watchModel struct {
	fetch   dashboardFetcher
	every   time.Duration
	spinner spinner.Model
	dash    *game.Dashboard
	err     error
	loading bool
	gen     int
	updated time.Time
}

func newWatchModel(fetch dashboardFetcher, every time.Duration) watchModel {
	if every < time.Second {
		every = time.Second
	}
	return watchModel{
		fetch:   fetch,
		every:   every,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(titleStyle)),
		loading: true,
	}
}

func runWatch(client *cl.Client, token string, every time.Duration) error {
	fetch := func(ctx context.Context) (game.Dashboard, error) {
		return client.Dashboard(ctx, token)
	}
	_, err := tea.NewProgram(newWatchModel(fetch, every)).Run()
	return err
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load())
}

func (m watchModel) load() tea.Cmd {
	fetch := m.fetch
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		d, err := fetch(ctx)
		return dashboardMsg{dash: d, err: err}
	}
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "r":
			if m.loading {
				return m, nil
			}
			m.loading = true
			m.gen++
			return m, m.load()
		}
	case dashboardMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			d := msg.dash
			m.dash = &d
			m.updated = time.Now()
		}
		if cl.IsUnauthorized(msg.err) {
			return m, tea.Quit
		}
		gen := m.gen
		return m, tea.Tick(m.every, func(time.Time) tea.Msg { return refreshMsg{gen: gen} })
	case refreshMsg:
		if msg.gen != m.gen || m.loading {
			return m, nil
		}
		m.loading = true
		return m, m.load()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m watchModel) View() string {
	status := dimStyle.Render("updated " + m.updated.Format(time.Kitchen))
	if m.loading {
		status = m.spinner.View() + " refreshing"
	}
	body := ""
	switch {
	case m.dash != nil:
		body = dashboardView(*m.dash)
	case m.err == nil:
		body = "Loading dashboard..."
	}
	if m.err != nil {
		body += "\n" + danger.Sprint(m.err.Error())
	}
	return body + "\n" + status + dimStyle.Render("  r refresh, q quit") + "\n"
}
