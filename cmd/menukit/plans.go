package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/menukit/internal/app"
	"github.com/dmitrymomot/menukit/pkg/feature"
	"github.com/dmitrymomot/menukit/pkg/plan"
)

func newPlansCmd() *cobra.Command {
	var (
		file     string
		asJSON   bool
		testMode bool
	)

	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Validate and print the plan catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			if file != "" {
				cfg.PlansFile = file
			}
			if cmd.Flags().Changed("test-mode") {
				cfg.Razorpay.TestMode = testMode
			}

			catalog, err := app.LoadCatalog(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(catalog.List())
			}
			return printPlans(cmd, catalog)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "catalog file, overrides PLANS_FILE")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.Flags().BoolVar(&testMode, "test-mode", false, "show test gateway plan ids")
	return cmd
}

func printPlans(cmd *cobra.Command, catalog plan.Catalog) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tDAYS\tSCANS\tGATEWAY PLAN\tFLAGS")
	for _, p := range catalog.List() {
		scans := strconv.FormatInt(p.EffectiveScanLimit(), 10)
		if p.IsUnlimited() {
			scans = "unlimited"
		}
		id := p.ID
		if p.Trial {
			id += " (trial)"
		}
		gateway := catalog.GatewayPlanID(p)
		if gateway == "" {
			gateway = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			id, p.Name, formatMoney(p.Price), p.Period(), scans, gateway, feature.Derive(p.Features))
	}
	return w.Flush()
}

func formatMoney(m plan.Money) string {
	if m.Amount == 0 {
		return "free"
	}
	return fmt.Sprintf("%d.%02d %s", m.Amount/100, m.Amount%100, m.Currency)
}
