package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/benefitlab/benefit-engine/internal/profile"
	"github.com/benefitlab/benefit-engine/pkg/engine"
)

// newQueryCmd creates the query subcommand.
func newQueryCmd() *cobra.Command {
	var (
		userID      string
		historyFile string
		showScores  bool
	)

	cmd := &cobra.Command{
		Use:   "query [question]",
		Short: "Ask a benefit question",
		Long: `Query runs a question through the recommendation pipeline and prints
the chat answer.

Spending history can be supplied as a JSON file of transactions:

  [{"brand": "스타벅스", "category": "카페", "amount": 5500, "date": "2026-08-20"}]

History drives personalization scoring; without it offers are ranked by
text relevance only.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			query := strings.Join(args, " ")

			history, err := loadHistory(historyFile)
			if err != nil {
				return err
			}

			ui := NewUI(outputJSON)

			eng, err := engine.New(cfg, logger)
			if err != nil {
				return fmt.Errorf("initialize engine: %w", err)
			}
			defer eng.Close()

			stop := ui.Spinner("혜택 검색 중...")
			resp, err := eng.Recommend(ctx, engine.Request{
				UserID:     userID,
				Query:      query,
				History:    history,
				ShowScores: showScores,
			})
			stop()
			if err != nil {
				return fmt.Errorf("query failed: %w", err)
			}

			if outputJSON {
				return json.NewEncoder(os.Stdout).Encode(resp)
			}

			ui.Header("추천 결과")
			fmt.Println(resp.Message)
			ui.Info("strategy: %s, offers: %d", resp.Strategy, len(resp.Offers))
			return nil
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "user ID for session context")
	cmd.Flags().StringVar(&historyFile, "history", "", "JSON file with spending history")
	cmd.Flags().BoolVar(&showScores, "scores", false, "include personalization scores in output")

	return cmd
}

func loadHistory(path string) ([]profile.Transaction, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read history file: %w", err)
	}

	var raw []struct {
		Brand    string  `json:"brand"`
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
		Date     string  `json:"date"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse history file: %w", err)
	}

	txs := make([]profile.Transaction, 0, len(raw))
	for _, r := range raw {
		date, err := parseFlexibleDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("parse transaction date %q: %w", r.Date, err)
		}
		txs = append(txs, profile.Transaction{
			Brand:    r.Brand,
			Category: r.Category,
			Amount:   r.Amount,
			Date:     date,
		})
	}
	return txs, nil
}

func parseFlexibleDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
