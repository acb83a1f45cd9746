// subtrack-report prints a terminal snapshot of the tracker: subscriptions,
// spend totals and upcoming payments, fetched from a running API server.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/joho/godotenv"

	"subtrack/internal/config"
	"subtrack/internal/core"
)

type subscription struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
	BillingCycle    string  `json:"billingCycle"`
	NextPaymentDate string  `json:"nextPaymentDate"`
	Status          string  `json:"status"`
}

type reminders struct {
	DueTomorrow    []subscription `json:"dueTomorrow"`
	DueInThreeDays []subscription `json:"dueInThreeDays"`
}

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()
	apiBase := flag.String("api", cfg.APIBaseURL, "base URL of the subtrack API")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}

	var subs []subscription
	if err := fetch(client, *apiBase+"/subscriptions", &subs); err != nil {
		fmt.Fprintln(os.Stderr, "fetch subscriptions:", err)
		os.Exit(1)
	}
	var summary core.Summary
	if err := fetch(client, *apiBase+"/summary", &summary); err != nil {
		fmt.Fprintln(os.Stderr, "fetch summary:", err)
		os.Exit(1)
	}
	var rem reminders
	if err := fetch(client, *apiBase+"/reminders", &rem); err != nil {
		fmt.Fprintln(os.Stderr, "fetch reminders:", err)
		os.Exit(1)
	}

	renderSubscriptions(subs)
	renderSummary(summary)
	renderReminders(rem)
}

func fetch(client *http.Client, url string, v any) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %s", url, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func renderSubscriptions(subs []subscription) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("Subscriptions")
	t.AppendHeader(table.Row{"ID", "Name", "Amount", "Cycle", "Next Payment", "Status"})
	for _, sub := range subs {
		t.AppendRow(table.Row{
			sub.ID,
			sub.Name,
			fmt.Sprintf("%.2f %s", sub.Amount, sub.Currency),
			sub.BillingCycle,
			sub.NextPaymentDate,
			sub.Status,
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Amount", Align: text.AlignRight},
	})
	t.SetStyle(table.StyleLight)
	t.Render()
	fmt.Println()
}

func renderSummary(s core.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("Spend Summary")
	t.AppendRow(table.Row{"Monthly total", fmt.Sprintf("%.2f", s.MonthlyTotal)})
	t.AppendRow(table.Row{"Yearly total", fmt.Sprintf("%.2f", s.YearlyTotal)})
	t.AppendRow(table.Row{"Active", s.ActiveCount})
	t.AppendRow(table.Row{"Paused", s.PausedCount})
	t.AppendRow(table.Row{"Total", s.TotalCount})
	t.SetStyle(table.StyleLight)
	t.Render()
	fmt.Println()
}

func renderReminders(r reminders) {
	if len(r.DueTomorrow) == 0 && len(r.DueInThreeDays) == 0 {
		fmt.Println("No upcoming payments.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("Upcoming Payments")
	t.AppendHeader(table.Row{"When", "Name", "Amount", "Date"})
	for _, sub := range r.DueTomorrow {
		t.AppendRow(table.Row{"tomorrow", sub.Name,
			fmt.Sprintf("%.2f %s", sub.Amount, sub.Currency), sub.NextPaymentDate})
	}
	for _, sub := range r.DueInThreeDays {
		t.AppendRow(table.Row{"in 3 days", sub.Name,
			fmt.Sprintf("%.2f %s", sub.Amount, sub.Currency), sub.NextPaymentDate})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}
