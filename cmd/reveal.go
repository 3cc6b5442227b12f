package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/exportiq/dealerscout/internal/cost"
	"github.com/exportiq/dealerscout/internal/reveal"
)

var (
	revealName    string
	revealTitle   string
	revealCompany string
	revealDomain  string
	revealOrgID   string
)

var revealCmd = &cobra.Command{
	Use:   "reveal",
	Short: "Reveal contact details for a person at a company",
	Long:  "Tries contact providers in cost order and stops at the first hit. The premium provider only runs for VIP titles.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		ledger := cost.NewLedger(initRates())
		cascade, err := initCascade(ledger)
		if err != nil {
			return err
		}

		result, err := cascade.Reveal(ctx, reveal.Request{
			FullName:    revealName,
			Title:       revealTitle,
			CompanyName: revealCompany,
			Domain:      revealDomain,
			OrgID:       revealOrgID,
		})
		snap := ledger.Finalize()
		if err != nil {
			if errors.Is(err, reveal.ErrExhausted) {
				fmt.Fprintf(os.Stderr, "No contact found. Spent $%.3f across %d providers.\n",
					snap.TotalUSD, len(snap.Sources))
				return nil
			}
			return eris.Wrap(err, "reveal")
		}

		fmt.Printf("Source: %s\n", result.Source)
		if result.Contact.Email != "" {
			fmt.Printf("Email:  %s\n", result.Contact.Email)
		}
		if result.Contact.Phone != "" {
			fmt.Printf("Phone:  %s\n", result.Contact.Phone)
		}
		if result.Contact.Mobile != "" {
			fmt.Printf("Mobile: %s\n", result.Contact.Mobile)
		}
		fmt.Printf("Cost:   $%.3f\n", snap.TotalUSD)
		return nil
	},
}

func init() {
	revealCmd.Flags().StringVar(&revealName, "name", "", "person's full name")
	revealCmd.Flags().StringVar(&revealTitle, "title", "", "person's job title (gates the premium provider)")
	revealCmd.Flags().StringVar(&revealCompany, "company", "", "company name")
	revealCmd.Flags().StringVar(&revealDomain, "domain", "", "company domain")
	revealCmd.Flags().StringVar(&revealOrgID, "org-id", "", "graph organization id, when known")
	rootCmd.AddCommand(revealCmd)
}
