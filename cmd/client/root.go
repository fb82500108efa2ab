package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "wardrobe",
		Short: "Manage your wardrobe, outfits and events",
		Long: `wardrobe keeps track of clothes, when they were last worn and which
events are coming up, and recommends items that are out of their cooldown.

AI features (try-on, garment analysis, outfit suggestions and the shopping
assistant) go through the gateway proxy started with the server binary.`,
		SilenceUsage: true,
		Version:      fmt.Sprintf("%s (built %s)", orNA(version), orNA(buildDate)),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	a.bindFlags(root)

	root.AddCommand(
		newClothesCmd(a),
		newRecommendCmd(a),
		newHistoryCmd(a),
		newEventsCmd(a),
		newProfileCmd(a),
		newTryOnCmd(a),
		newAnalyzeCmd(a),
		newSuggestCmd(a),
		newShopCmd(a),
		newStatusCmd(a),
		newSeedCmd(a),
		newResetCmd(a),
		newWatchCmd(a),
	)
	return root
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
