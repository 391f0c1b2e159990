// Package report renders simulation results as CSV files and console tables.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/talgya/agentmarket/internal/engine"
	"github.com/talgya/agentmarket/internal/persistence"
)

// WriteCSV writes recorded tick rows to w, one row per tick.
func WriteCSV(w io.Writer, rows []persistence.TickRow) error {
	cw := csv.NewWriter(w)
	header := []string{
		"tick", "price", "return",
		"advisory_action", "advisory_confidence", "advisory_source",
		"buy_count", "sell_count",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			strconv.Itoa(r.Tick),
			strconv.FormatFloat(r.Price, 'f', 4, 64),
			strconv.FormatFloat(r.Return, 'f', 6, 64),
			r.AdvisoryAction,
			strconv.FormatFloat(r.AdvisoryConfidence, 'f', 2, 64),
			r.AdvisorySource,
			strconv.Itoa(r.BuyCount),
			strconv.Itoa(r.SellCount),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row %d: %w", r.Tick, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteCSVFile writes recorded tick rows to a file at path.
func WriteCSVFile(path string, rows []persistence.TickRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()
	return WriteCSV(f, rows)
}

// PrintRunSummary prints the market trajectory and final network metrics of
// a completed run.
func PrintRunSummary(out io.Writer, m *engine.Model, rows []persistence.TickRow) {
	prices := m.PriceHistory()
	first, last := prices[0], prices[len(prices)-1]
	change := (last - first) / first * 100

	fmt.Fprintf(out, "\nRun complete: %d ticks, price %.2f -> %.2f (%+.2f%%)\n",
		len(rows), first, last, change)

	printTickTable(out, rows)
	printWealthTable(out, m)
	printNetworkSummary(out, m)
}

func printTickTable(out io.Writer, rows []persistence.TickRow) {
	table := tablewriter.NewWriter(out)
	table.Header("Tick", "Price", "Return", "Advisory", "Conf", "Source", "Buys", "Sells")

	for _, r := range rows {
		table.Append(
			strconv.Itoa(r.Tick),
			fmt.Sprintf("%.2f", r.Price),
			fmt.Sprintf("%+.4f", r.Return),
			r.AdvisoryAction,
			fmt.Sprintf("%.2f", r.AdvisoryConfidence),
			r.AdvisorySource,
			strconv.Itoa(r.BuyCount),
			strconv.Itoa(r.SellCount),
		)
	}

	table.Render()
}

func printWealthTable(out io.Writer, m *engine.Model) {
	investors := m.Investors()

	type entry struct {
		id     int
		wealth float64
	}
	entries := make([]entry, 0, len(investors))
	for _, inv := range investors {
		entries = append(entries, entry{inv.ID(), inv.LastWealth()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].wealth > entries[j].wealth })

	top := entries
	if len(top) > 10 {
		top = top[:10]
	}

	fmt.Fprintf(out, "\nTop investors by wealth:\n")
	table := tablewriter.NewWriter(out)
	table.Header("Agent", "Profile", "Wealth")
	for _, e := range top {
		var profile string
		for _, inv := range investors {
			if inv.ID() == e.id {
				profile = inv.Profile()
				break
			}
		}
		table.Append(strconv.Itoa(e.id), profile, fmt.Sprintf("%.2f", e.wealth))
	}
	table.Render()
}

func printNetworkSummary(out io.Writer, m *engine.Model) {
	metrics := m.Metrics()
	fmt.Fprintf(out, "\nNetwork: %d nodes, %d edges, avg degree %.2f, clustering %.3f, modularity %.3f, %d communities\n",
		metrics.Nodes, metrics.Edges, metrics.AvgDegree,
		metrics.AvgClustering, metrics.Modularity, len(metrics.Communities))
}
