package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/exportiq/dealerscout/internal/discovery"
)

var (
	discoverCampaignPath string
	discoverCountries    []string
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Run a discovery campaign across target markets",
	Long:  "Loads a campaign file, fans out to all configured sources per country, and writes scored, tiered candidates to the store.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		campaign, err := discovery.LoadCampaign(discoverCampaignPath)
		if err != nil {
			return eris.Wrap(err, "discover")
		}
		if len(discoverCountries) > 0 {
			campaign.Countries = discoverCountries
		}
		if campaign.PagesPerSource == 0 {
			campaign.PagesPerSource = cfg.Discovery.PagesPerSource
		}
		if err := campaign.Validate(); err != nil {
			return eris.Wrap(err, "discover")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		runner, err := initRunner(st)
		if err != nil {
			return err
		}

		zap.L().Info("starting discovery run",
			zap.String("campaign", campaign.Name),
			zap.Strings("countries", campaign.ResolvedCountries()),
		)

		run, err := runner.Run(ctx, campaign)
		if err != nil {
			return eris.Wrap(err, "discover")
		}

		formatRunReport(os.Stdout, run)
		return nil
	},
}

func formatRunReport(w io.Writer, run *discovery.Run) {
	fmt.Fprintf(w, "Run %s (%s)\n", run.ID, run.Status)
	fmt.Fprintf(w, "Campaign: %s\n", run.Campaign)
	fmt.Fprintf(w, "Duration: %s\n\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Second))

	counts := run.TierCounts()
	fmt.Fprintf(w, "Candidates: %d total (A: %d, B: %d, C: %d, unqualified: %d)\n\n",
		len(run.Candidates),
		counts[discovery.TierA], counts[discovery.TierB],
		counts[discovery.TierC], counts[discovery.TierUnqualified],
	)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COUNTRY\tSTATUS\tCANDIDATES")
	for _, iso := range run.Countries {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", iso, run.CountryStatus[iso], len(run.CountryCandidates(iso)))
	}
	tw.Flush()

	if len(run.PerCountryErrors) > 0 {
		fmt.Fprintf(w, "\nErrors (%d):\n", len(run.PerCountryErrors))
		for _, e := range run.PerCountryErrors {
			fmt.Fprintf(w, "  [%s/%s] %s\n", e.Country, e.Source, e.Message)
		}
	}

	fmt.Fprintf(w, "\nCost: $%.2f\n", run.Cost.TotalUSD)
	for _, src := range run.Cost.SourceNames() {
		li := run.Cost.Sources[src]
		fmt.Fprintf(w, "  %s: %d calls, %d units, $%.3f\n", src, li.CallsMade, li.UnitsSpent, li.CostUSD)
	}
}

func init() {
	discoverCmd.Flags().StringVarP(&discoverCampaignPath, "campaign", "c", "", "path to campaign YAML file (required)")
	discoverCmd.Flags().StringSliceVar(&discoverCountries, "countries", nil, "override campaign countries (ISO codes or names)")
	discoverCmd.MarkFlagRequired("campaign") //nolint:errcheck
	rootCmd.AddCommand(discoverCmd)
}
