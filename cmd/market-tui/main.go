// Command market-tui is a terminal market watcher: it polls the query API
// and renders the current board.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-resty/resty/v2"

	"github.com/buzzcap/buzzmarket/internal/domain"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("57")).
			Padding(0, 1)

	colStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	upStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	downStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

type marketResponse struct {
	Success bool           `json:"success"`
	Data    []domain.Quote `json:"data"`
}

type (
	quotesMsg []domain.Quote
	errMsg    struct{ err error }
	pollMsg   time.Time
)

type model struct {
	client   *resty.Client
	interval time.Duration

	quotes    []domain.Quote
	fetchErr  error
	updatedAt time.Time
}

func newModel(baseURL string, interval time.Duration) model {
	return model{
		client:   resty.New().SetBaseURL(baseURL).SetTimeout(10 * time.Second),
		interval: interval,
	}
}

func (m model) fetchCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		var out marketResponse
		resp, err := client.R().SetResult(&out).Get("/api/market")
		if err != nil {
			return errMsg{err}
		}
		if resp.IsError() {
			return errMsg{fmt.Errorf("unexpected status %d", resp.StatusCode())}
		}
		return quotesMsg(out.Data)
	}
}

func (m model) pollCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return pollMsg(t) })
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.fetchCmd(), m.pollCmd())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.fetchCmd()
		}
	case pollMsg:
		return m, tea.Batch(m.fetchCmd(), m.pollCmd())
	case quotesMsg:
		m.quotes = msg
		m.fetchErr = nil
		m.updatedAt = time.Now()
	case errMsg:
		m.fetchErr = msg.err
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("BUZZMARKET"))
	b.WriteString("\n\n")
	b.WriteString(colStyle.Render(fmt.Sprintf("%-8s %10s %10s %9s  %s",
		"SYMBOL", "PRICE", "CHANGE", "CHG%", "CATEGORY")))
	b.WriteString("\n")

	for _, q := range m.quotes {
		style := dimStyle
		arrow := " "
		switch q.Change.Sign() {
		case 1:
			style = upStyle
			arrow = "▲"
		case -1:
			style = downStyle
			arrow = "▼"
		}
		row := fmt.Sprintf("%-8s %10s %s%9s %8s%%  %s",
			q.Symbol,
			q.Price.StringFixed(2),
			arrow,
			q.Change.StringFixed(2),
			q.ChangePercent.StringFixed(2),
			q.Category)
		b.WriteString(style.Render(row))
		b.WriteString("\n")
	}
	if len(m.quotes) == 0 && m.fetchErr == nil {
		b.WriteString(dimStyle.Render("waiting for market data..."))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.fetchErr != nil {
		b.WriteString(errStyle.Render(fmt.Sprintf("fetch error: %v", m.fetchErr)))
		b.WriteString("\n")
	}
	if !m.updatedAt.IsZero() {
		b.WriteString(dimStyle.Render("updated " + m.updatedAt.Format("15:04:05")))
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render("r refresh · q quit"))
	b.WriteString("\n")
	return b.String()
}

func main() {
	getenv := func(key, def string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return def
	}

	var (
		baseURL  = flag.String("url", getenv("BUZZMARKET_URL", "http://localhost:8080"), "server base URL")
		interval = flag.Duration("interval", 30*time.Second, "poll interval")
	)
	flag.Parse()

	p := tea.NewProgram(newModel(*baseURL, *interval))
	if _, err := p.Run(); err != nil {
		log.Fatalf("tui error: %v", err)
	}
}
