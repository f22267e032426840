// radartop prints the current opportunity ranking as a terminal table,
// using the same classification the dashboard applies. With -csv it emits
// the dashboard's export format instead.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/dmbarbosa/market-radar/internal/classify"
	"github.com/dmbarbosa/market-radar/internal/config"
	"github.com/dmbarbosa/market-radar/internal/radar"
	"github.com/dmbarbosa/market-radar/internal/render"
	"github.com/dmbarbosa/market-radar/internal/view"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config override")
	limit := flag.Int("limit", 20, "number of opportunities to fetch")
	category := flag.String("category", "all", "filter by category")
	search := flag.String("q", "", "search keyword, category and buying intent")
	sortKey := flag.String("sort", "score", "sort order: score or validation")
	asCSV := flag.Bool("csv", false, "emit the dashboard CSV export instead of a table")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	client := radar.NewClient(cfg.Upstream.BaseURL,
		radar.WithTimeout(time.Duration(cfg.Upstream.TimeoutSeconds)*time.Second),
		radar.WithRateLimit(cfg.Upstream.RateLimitRPS),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	opps, err := client.Ranking(ctx, *limit)
	if err != nil {
		log.Fatalf("Failed to fetch ranking: %v", err)
	}

	filters := view.Filters{Category: *category, Search: *search, Sort: *sortKey}
	opps = filters.Apply(opps)

	if *asCSV {
		if err := render.WriteCSV(os.Stdout, opps); err != nil {
			log.Fatal(err)
		}
		fmt.Println()
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", "Keyword", "Score", "Tier", "Category", "Velocity", "Gap", "Marketplace"})

	for i := range opps {
		o := &opps[i]
		cls := classify.Classify(o)
		velocity, _ := o.Signal(classify.SignalVelocity)
		gap, _ := o.Signal(classify.SignalSupplyGap)

		t.AppendRow(table.Row{
			i + 1,
			o.Keyword,
			fmt.Sprintf("%.1f", float64(o.Score)),
			cls.Tier.String(),
			o.Category(),
			fmt.Sprintf("%.2f", velocity),
			fmt.Sprintf("%.2f", gap),
			o.Meta.Marketplace,
		})
	}
	t.Render()

	if stats, err := client.Stats(ctx); err == nil {
		fmt.Printf("\n%d oportunidades, %d produtos, média %.1f, top %.1f\n",
			stats.TotalOpportunities, stats.TotalProducts,
			float64(stats.AvgScore), float64(stats.TopScore))
	}
}
