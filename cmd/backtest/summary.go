package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// Style definitions.
var (
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))

	LabelStyle = lipgloss.NewStyle().Width(18).Faint(true)

	PositiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	NegativeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// FormatPercent formats a percentage with an explicit sign.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}

func colored(v float64, text string) string {
	switch {
	case v > 0:
		return PositiveStyle.Render(text)
	case v < 0:
		return NegativeStyle.Render(text)
	default:
		return text
	}
}

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, LabelStyle.Render(label), value)
}

func renderSummary(result types.BacktestResult) string {
	rows := []string{
		TitleStyle.Render(fmt.Sprintf("%s  %s", result.Strategy.Name, strings.Join(result.Symbols, "/"))),
		"",
		row("Run", result.ID),
		row("Initial Capital", fmt.Sprintf("%.2f", result.InitialCapital)),
		row("Final Capital", fmt.Sprintf("%.2f", result.FinalCapital)),
		row("Total Return", colored(result.TotalReturnPct, FormatPercent(result.TotalReturnPct))),
		row("Sharpe Ratio", colored(result.SharpeRatio, fmt.Sprintf("%.3f", result.SharpeRatio))),
		row("Max Drawdown", colored(result.MaxDrawdownPct, FormatPercent(result.MaxDrawdownPct))),
		row("Total Trades", fmt.Sprintf("%d", result.TotalTrades)),
		row("Win Rate", fmt.Sprintf("%.2f%%", result.WinRatePct)),
	}

	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func renderStrategies(defs []strategy.Definition) string {
	blocks := make([]string, 0, len(defs))

	for _, def := range defs {
		params := defaultParams(def)

		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, fmt.Sprintf("%s=%v", k, params[k]))
		}

		blocks = append(blocks, lipgloss.JoinVertical(lipgloss.Left,
			TitleStyle.Render(def.ID)+" "+LabelStyle.UnsetWidth().Render("("+string(def.Kind)+")"),
			def.Description,
			LabelStyle.UnsetWidth().Render(strings.Join(pairs, " ")),
		))
	}

	return strings.Join(blocks, "\n\n")
}
