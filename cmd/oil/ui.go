package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"golang.org/x/term"

	cl "oilrush/internal/cli"
	"oilrush/internal/economy"
	"oilrush/internal/game"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(20)
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	rarityColors = map[economy.Rarity]*color.Color{
		economy.RarityCommon:    neutral,
		economy.RarityRare:      color.New(color.FgBlue, color.Bold),
		economy.RarityEpic:      color.New(color.FgMagenta, color.Bold),
		economy.RarityLegendary: color.New(color.FgYellow, color.Bold),
	}
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func promptRequired(label string) (string, error) {
	for {
		fmt.Printf("%s: ", label)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if text != "" {
			return text, nil
		}
		printWarn(label + " is required.")
	}
}

func promptOptional(label string) (string, error) {
	fmt.Printf("%s: ", label)
	text, err := stdinReader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// promptPassword hides input on a terminal and falls back to a plain read
// when stdin is piped.
func promptPassword(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return promptRequired(label)
	}
	for {
		fmt.Printf("%s: ", label)
		raw, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		if text := strings.TrimSpace(string(raw)); text != "" {
			return text, nil
		}
		printWarn(label + " is required.")
	}
}

func promptConfirm(label string) (bool, error) {
	fmt.Printf("%s [y/N]: ", label)
	text, err := stdinReader.ReadString('\n')
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func row(label, value string) string {
	return labelStyle.Render(label) + value
}

func dashboardView(d game.Dashboard) string {
	var b strings.Builder
	p := d.Profile
	b.WriteString(titleStyle.Render("OIL RUSH") + dimStyle.Render("  referral "+p.ReferralCode) + "\n")
	b.WriteString(row("Money", comma(p.Balances.Money)) + "\n")
	b.WriteString(row("Coins", comma(p.Balances.Coins)) + "\n")
	b.WriteString(row("Barrels", comma(p.Balances.Barrels)) + "\n")
	b.WriteString(row("Multiplier", fmt.Sprintf("x%.3f", d.Multiplier)) + "\n")
	b.WriteString(row("Income", fmt.Sprintf("%s bbl/day (%s money)", comma(d.DailyIncome), strconv.FormatFloat(d.DailyIncomeMoney, 'f', 2, 64))) + "\n")
	if d.PendingOffline.Amount > 0 {
		b.WriteString(row("Waiting offline", success.Sprint(comma(d.PendingOffline.Amount)+" bbl")) + "\n")
	}

	b.WriteString("\n" + titleStyle.Render("Wells") + "\n")
	if len(d.Wells) == 0 {
		b.WriteString(dimStyle.Render("No wells yet. Try `oil wells buy starter`.") + "\n")
	}
	for _, w := range d.Wells {
		b.WriteString(fmt.Sprintf("%-13s lvl %-3d %12s bbl/day  %s\n", w.Type, w.Level, comma(w.DailyIncome), dimStyle.Render(w.ID)))
	}

	b.WriteString("\n" + titleStyle.Render("Boosters") + "\n")
	if len(d.Boosters) == 0 {
		b.WriteString(dimStyle.Render("No boosters.") + "\n")
	}
	for _, bv := range d.Boosters {
		state := success.Sprint("active")
		if !bv.Active {
			state = danger.Sprint("expired")
		} else if bv.ExpiresIn > 0 {
			state += dimStyle.Render(" " + formatRemaining(bv.ExpiresIn))
		}
		next := "max"
		if bv.NextCost > 0 {
			next = comma(bv.NextCost)
		}
		b.WriteString(fmt.Sprintf("%-20s lvl %d/%-3d next %-10s %s\n", bv.Name, bv.Level, bv.MaxLevel, next, state))
	}
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func renderResume(r game.ResumeResult) {
	switch {
	case r.Credit.Amount > 0:
		printSuccess(fmt.Sprintf("Your wells pumped %s barrels while you were away (%s).", comma(r.Credit.Amount), formatRemaining(r.Credit.Credited)))
	case r.Credit.Discarded > 0:
		printInfo("Not enough oil pumped since your last visit to collect.")
	default:
		printInfo("Nothing to collect yet.")
	}
}

func renderCatalog(cat *economy.Catalog) {
	accent.Println("Wells")
	fmt.Printf("%-13s %-20s %12s %14s %6s\n", "TYPE", "NAME", "PRICE", "BBL/DAY", "MAX")
	for _, w := range cat.Wells {
		fmt.Printf("%-13s %-20s %12s %14s %6d\n", w.Type, truncate(w.Name, 20), comma(w.Price), comma(w.BaseIncome), w.MaxLevel)
	}
	fmt.Println()
	accent.Println("Boosters")
	fmt.Printf("%-20s %8s %12s %6s %10s\n", "TYPE", "BONUS", "FIRST", "MAX", "DURATION")
	for _, b := range cat.Boosters {
		if !b.Purchasable {
			continue
		}
		duration := "permanent"
		if b.Temporary() {
			duration = formatRemaining(b.Duration)
		}
		fmt.Printf("%-20s %7.0f%% %12s %6d %10s\n", b.Type, b.PercentPerLevel, comma(economy.BoosterCost(b, 0)), b.MaxLevel, duration)
	}
	fmt.Println()
	accent.Println("Cases")
	for _, c := range cat.Cases {
		odds := make([]string, 0, len(c.Bands))
		for _, band := range c.Bands {
			odds = append(odds, fmt.Sprintf("%s %.0f%%", band.Rarity, band.Percent))
		}
		fmt.Printf("%-14s %10s  %s\n", c.ID, comma(c.Price), dimStyle.Render(strings.Join(odds, ", ")))
	}
}

func renderCaseOpening(out cl.CaseOpening) {
	c, ok := rarityColors[out.Reward.Rarity]
	if !ok {
		c = neutral
	}
	fmt.Printf("%s %s\n", c.Sprint(strings.ToUpper(string(out.Reward.Rarity))), out.Reward.Label)
	fmt.Printf("Paid %s, money change %s, balance %s\n", comma(out.Price), signed(out.MoneyDelta), comma(out.Profile.Balances.Money))
	if out.Booster != nil && out.Booster.ExpiresAt != nil {
		printInfo("Active until " + out.Booster.ExpiresAt.Local().Format(time.Kitchen))
	}
}

func renderPlan(p economy.PlanResult) {
	accent.Printf("Plan for %s money/day (%s)\n", strconv.FormatFloat(p.Target, 'f', -1, 64), p.Shape)
	for _, l := range p.Lines {
		name := string(l.Well)
		if l.Bundle != "" {
			name = l.Bundle
		}
		fmt.Printf("  %3d x %-14s %12s\n", l.Count, name, comma(l.Cost))
	}
	if p.Booster != "" {
		fmt.Printf("  + %-18s %12s\n", p.Booster, comma(p.BoosterCost))
	}
	fmt.Println(row("Total cost", comma(p.TotalCost)))
	fmt.Println(row("Income", fmt.Sprintf("%.2f money/day (x%.3f)", p.ActualIncome, p.Multiplier)))
	fmt.Println(row("Payback", fmt.Sprintf("%d days", p.PaybackDays)))
}

func renderTransactions(txs []economy.Transaction) {
	if len(txs) == 0 {
		printInfo("No transactions yet.")
		return
	}
	fmt.Printf("%-17s %-16s %-8s %14s\n", "WHEN", "KIND", "CURRENCY", "AMOUNT")
	for _, tx := range txs {
		fmt.Printf("%-17s %-16s %-8s %14s\n", tx.CreatedAt.Local().Format("2006-01-02 15:04"), tx.Kind, tx.Currency, signed(tx.Amount))
	}
}

func signed(v int64) string {
	switch {
	case v > 0:
		return success.Sprint("+" + comma(v))
	case v < 0:
		return danger.Sprint("-" + comma(-v))
	default:
		return neutral.Sprint("0")
	}
}

func formatRemaining(d time.Duration) string {
	d = d.Round(time.Minute)
	if d >= 24*time.Hour {
		return fmt.Sprintf("%dd%dh", int(d.Hours())/24, int(d.Hours())%24)
	}
	if d >= time.Hour {
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
	return fmt.Sprintf("%dm", int(d.Minutes()))
}

func comma(v int64) string {
	if v < 0 {
		return "-" + comma(-v)
	}
	s := strconv.FormatInt(v, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
		if len(s) > pre {
			b.WriteByte(',')
		}
	}
	for i := pre; i < len(s); i += 3 {
		b.WriteString(s[i : i+3])
		if i+3 < len(s) {
			b.WriteByte(',')
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
