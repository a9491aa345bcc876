package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/benefitlab/benefit-engine/pkg/engine"
)

// newBrandsCmd creates the brands subcommand.
func newBrandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "brands",
		Short: "List brands known to the offer catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listCatalog("brands", func(eng *engine.Engine) []string {
				return eng.Brands()
			})
		},
	}
}

// newCategoriesCmd creates the categories subcommand.
func newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories known to the offer catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listCatalog("categories", func(eng *engine.Engine) []string {
				return eng.Categories()
			})
		},
	}
}

func listCatalog(name string, list func(*engine.Engine) []string) error {
	eng, err := engine.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize engine: %w", err)
	}
	defer eng.Close()

	items := list(eng)

	if outputJSON {
		return json.NewEncoder(os.Stdout).Encode(map[string][]string{name: items})
	}

	ui := NewUI(outputJSON)
	if len(items) == 0 {
		ui.Info("catalog is empty")
		return nil
	}
	for _, item := range items {
		fmt.Println(item)
	}
	return nil
}
