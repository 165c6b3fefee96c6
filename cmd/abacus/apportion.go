package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rawblock/abacus/internal/aggregation"
	"github.com/rawblock/abacus/internal/apportionment"
	"github.com/rawblock/abacus/internal/domain"
	"github.com/rawblock/abacus/internal/nomination"
	"github.com/rawblock/abacus/internal/store"
)

// apportionCmd runs aggregation, apportionment, and nomination for one
// committee session against the configured database and prints the
// result as JSON, without going through the HTTP API — useful for CI
// smoke tests and for coordinators auditing a result offline.
var apportionCmd = &cobra.Command{
	Use:   "apportion <committee-session-id>",
	Short: "Compute seat apportionment and candidate nomination for a committee session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid committee session id: %w", err)
		}

		st, err := store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer st.Close()

		tx, err := st.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		session, err := tx.LockCommitteeSession(ctx, domain.CommitteeSessionID(id))
		if err != nil {
			return fmt.Errorf("load committee session: %w", err)
		}
		election, err := tx.Election(ctx, session.ElectionID)
		if err != nil {
			return fmt.Errorf("load election: %w", err)
		}
		stations, err := tx.PollingStationsOf(ctx, session.ID)
		if err != nil {
			return fmt.Errorf("load polling stations: %w", err)
		}

		summary, _, err := aggregation.Aggregate(election, stations, tx)
		if err != nil {
			return fmt.Errorf("aggregate: %w", err)
		}

		apportionResult, err := apportionment.Apportion(election.NumberOfSeats, election, *summary)
		if err != nil {
			return fmt.Errorf("apportion: %w", err)
		}

		nominationResult, err := nomination.Nominate(election.NumberOfSeats, election, apportionResult, summary.PoliticalGroupVotes)
		if err != nil {
			return fmt.Errorf("nominate: %w", err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"summary":       summary,
			"apportionment": apportionResult,
			"nomination":    nominationResult,
		})
	},
}

func init() {
	rootCmd.AddCommand(apportionCmd)
}
