package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/benefitlab/benefit-engine/internal/offer"
	"github.com/benefitlab/benefit-engine/pkg/engine"
)

// offerRecord is one offer entry in an ingestion file.
type offerRecord struct {
	ID           string  `json:"id,omitempty" yaml:"id,omitempty"`
	Brand        string  `json:"brand" yaml:"brand"`
	Category     string  `json:"category" yaml:"category"`
	Title        string  `json:"title" yaml:"title"`
	Description  string  `json:"description,omitempty" yaml:"description,omitempty"`
	BenefitType  string  `json:"benefit_type" yaml:"benefit_type"`
	DiscountRate float64 `json:"discount_rate,omitempty" yaml:"discount_rate,omitempty"`
	Conditions   string  `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	ValidFrom    string  `json:"valid_from,omitempty" yaml:"valid_from,omitempty"`
	ValidTo      string  `json:"valid_to,omitempty" yaml:"valid_to,omitempty"`
	Active       *bool   `json:"active,omitempty" yaml:"active,omitempty"`
}

// newIngestCmd creates the ingest subcommand.
func newIngestCmd() *cobra.Command {
	var offersFile string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest offers from a JSON or YAML file into the catalog",
		Long: `Ingest loads an array of offers from a JSON or YAML file, embeds their
search text when an embedding API is configured, and stores them in the
offer catalog.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()

			ui := NewUI(outputJSON)

			records, err := loadOfferRecords(offersFile)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return fmt.Errorf("no offers in %s", offersFile)
			}

			offers := make([]*offer.Offer, 0, len(records))
			for i, rec := range records {
				o, err := recordToOffer(rec)
				if err != nil {
					return fmt.Errorf("offer %d: %w", i, err)
				}
				offers = append(offers, o)
			}

			eng, err := engine.New(cfg, logger)
			if err != nil {
				return fmt.Errorf("initialize engine: %w", err)
			}
			defer eng.Close()

			bar := progressbar.NewOptions(len(offers),
				progressbar.OptionSetDescription("ingesting offers"),
				progressbar.OptionSetVisibility(!outputJSON),
				progressbar.OptionShowCount(),
			)

			inserted := 0
			for _, o := range offers {
				if _, err := eng.Ingest(ctx, []*offer.Offer{o}); err != nil {
					ui.Error("insert %s/%s failed: %v", o.Brand, o.Title, err)
					bar.Add(1)
					continue
				}
				inserted++
				bar.Add(1)
			}
			bar.Finish()
			fmt.Println()

			if outputJSON {
				return json.NewEncoder(os.Stdout).Encode(map[string]int{
					"total":    len(offers),
					"inserted": inserted,
				})
			}

			ui.Success("ingested %d/%d offers", inserted, len(offers))
			return nil
		},
	}

	cmd.Flags().StringVarP(&offersFile, "file", "f", "", "JSON or YAML file with offers (required)")
	cmd.MarkFlagRequired("file")

	return cmd
}

// loadOfferRecords reads an offer array from a JSON or YAML file,
// picking the format from the file extension.
func loadOfferRecords(path string) ([]offerRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read offers file: %w", err)
	}

	var records []offerRecord
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("parse offers file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("parse offers file: %w", err)
		}
	}
	return records, nil
}

func recordToOffer(rec offerRecord) (*offer.Offer, error) {
	if rec.Brand == "" || rec.Title == "" {
		return nil, fmt.Errorf("brand and title are required")
	}

	id := uuid.New()
	if rec.ID != "" {
		parsed, err := uuid.Parse(rec.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid offer ID: %w", err)
		}
		id = parsed
	}

	o := &offer.Offer{
		ID:           id,
		Brand:        rec.Brand,
		Category:     rec.Category,
		Title:        rec.Title,
		Description:  rec.Description,
		BenefitType:  offer.ParseBenefitType(rec.BenefitType),
		DiscountRate: rec.DiscountRate,
		Conditions:   rec.Conditions,
		Active:       true,
		CreatedAt:    time.Now(),
	}
	if rec.Active != nil {
		o.Active = *rec.Active
	}

	if rec.ValidFrom != "" {
		t, err := parseFlexibleDate(rec.ValidFrom)
		if err != nil {
			return nil, fmt.Errorf("invalid valid_from: %w", err)
		}
		o.ValidFrom = &t
	}
	if rec.ValidTo != "" {
		t, err := parseFlexibleDate(rec.ValidTo)
		if err != nil {
			return nil, fmt.Errorf("invalid valid_to: %w", err)
		}
		o.ValidTo = &t
	}
	return o, nil
}
