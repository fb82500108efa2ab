package main

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/atinyakov/WardrobeKeeper/internal/client/wardrobe"
	"github.com/atinyakov/WardrobeKeeper/internal/models"
)

func newClothesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "clothes",
		Aliases: []string{"c"},
		Short:   "Add, list, edit and wear clothing items",
	}
	cmd.AddCommand(
		newClothesAddCmd(a),
		newClothesListCmd(a),
		newClothesRemoveCmd(a),
		newClothesUpdateCmd(a),
		newClothesWearCmd(a),
	)
	return cmd
}

func newClothesAddCmd(a *app) *cobra.Command {
	var (
		nc       models.NewClothing
		category string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a clothing item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := models.ParseCategory(category)
			if err != nil {
				return err
			}
			nc.Category = c
			if nc.ImageURL, err = imageRef(nc.ImageURL); err != nil {
				return err
			}
			item := a.wardrobe.AddClothing(cmd.Context(), nc)
			fmt.Fprintf(out(cmd), "added %s (%s)\n", item.Name, item.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&nc.Name, "name", "", "item name")
	cmd.Flags().StringVar(&category, "category", "", "one of "+categoryList())
	cmd.Flags().StringVar(&nc.ImageURL, "image", "", "image file, URL or data URI")
	cmd.Flags().StringVar(&nc.Color, "color", "", "colour")
	cmd.Flags().IntVar(&nc.CooldownDays, "cooldown", models.DefaultCooldownDays, "days before the item is recommended again")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func newClothesListCmd(a *app) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List clothing items",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items := a.wardrobe.Clothes(cmd.Context())
			if category != "" {
				c, err := models.ParseCategory(category)
				if err != nil {
					return err
				}
				items = a.wardrobe.ClothingByCategory(cmd.Context(), c)
			}
			printClothes(cmd, items)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only show this category")
	return cmd
}

func newClothesRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a clothing item",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := a.wardrobe.ClothingByID(cmd.Context(), args[0]); !ok {
				return fmt.Errorf("no clothing item %q", args[0])
			}
			a.wardrobe.RemoveClothing(cmd.Context(), args[0])
			fmt.Fprintf(out(cmd), "removed %s\n", args[0])
			return nil
		},
	}
}

func newClothesUpdateCmd(a *app) *cobra.Command {
	var (
		name, category, image, color string
		cooldown                     int
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a clothing item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch models.ClothingPatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				patch.Name = &name
			}
			if flags.Changed("category") {
				c, err := models.ParseCategory(category)
				if err != nil {
					return err
				}
				patch.Category = &c
			}
			if flags.Changed("image") {
				ref, err := imageRef(image)
				if err != nil {
					return err
				}
				patch.ImageURL = &ref
			}
			if flags.Changed("color") {
				patch.Color = &color
			}
			if flags.Changed("cooldown") {
				patch.CooldownDays = &cooldown
			}

			item, ok := a.wardrobe.UpdateClothing(cmd.Context(), args[0], patch)
			if !ok {
				return fmt.Errorf("no clothing item %q", args[0])
			}
			fmt.Fprintf(out(cmd), "updated %s (%s)\n", item.Name, item.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "item name")
	cmd.Flags().StringVar(&category, "category", "", "one of "+categoryList())
	cmd.Flags().StringVar(&image, "image", "", "image file, URL or data URI")
	cmd.Flags().StringVar(&color, "color", "", "colour")
	cmd.Flags().IntVar(&cooldown, "cooldown", 0, "cooldown in days")
	return cmd
}

func newClothesWearCmd(a *app) *cobra.Command {
	var eventType string
	cmd := &cobra.Command{
		Use:   "wear <id>",
		Short: "Record that an item was worn today",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, ok := a.wardrobe.MarkAsWorn(cmd.Context(), args[0], eventType)
			if !ok {
				return fmt.Errorf("no clothing item %q", args[0])
			}
			item, _ := a.wardrobe.ClothingByID(cmd.Context(), args[0])
			fmt.Fprintf(out(cmd), "wore %s on %s (worn %d times)\n",
				item.Name, h.WornDate.Format(time.DateOnly), item.WearCount)
			return nil
		},
	}
	cmd.Flags().StringVar(&eventType, "event-type", "", "occasion the item was worn for")
	return cmd
}

func newRecommendCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "recommend",
		Short: "List items that are out of their cooldown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printClothes(cmd, a.wardrobe.RecommendedOutfits(cmd.Context()))
			return nil
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history [clothing-id]",
		Short: "Show the wear history, optionally for one item",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			history := a.wardrobe.WearHistory(ctx)
			if len(args) == 1 {
				history = a.wardrobe.HistoryFor(ctx, args[0])
			}
			if len(history) == 0 {
				fmt.Fprintln(out(cmd), "no wear history")
				return nil
			}
			tw := tabwriter.NewWriter(out(cmd), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tITEM\tEVENT")
			for _, h := range history {
				name := h.ClothingID
				if item, ok := a.wardrobe.ClothingByID(ctx, h.ClothingID); ok {
					name = item.Name
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", h.WornDate.Local().Format(time.DateOnly), name, h.EventType)
			}
			return tw.Flush()
		},
	}
}

func printClothes(cmd *cobra.Command, items []models.ClothingItem) {
	if len(items) == 0 {
		fmt.Fprintln(out(cmd), "no clothing items")
		return
	}
	now := time.Now()
	tw := tabwriter.NewWriter(out(cmd), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tCOLOR\tWORN\tLAST WORN")
	for _, it := range items {
		last := "never"
		if it.LastWorn != nil {
			last = fmt.Sprintf("%d days ago", wardrobe.DaysSince(now, *it.LastWorn))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", it.ID, it.Name, it.Category, it.Color, it.WearCount, last)
	}
	_ = tw.Flush()
}

func categoryList() string {
	names := make([]string, len(models.Categories))
	for i, c := range models.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

// imageRef turns a local file into a data URI and passes URLs, data URIs
// and empty strings through.
func imageRef(ref string) (string, error) {
	if ref == "" || strings.HasPrefix(ref, "data:") || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref, nil
	}
	data, err := os.ReadFile(ref)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("%s is not an image (%s)", ref, mime)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
