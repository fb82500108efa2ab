package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/atinyakov/WardrobeKeeper/internal/models"
)

func newEventsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "events",
		Aliases: []string{"e"},
		Short:   "Plan events and the outfits for them",
	}
	cmd.AddCommand(
		newEventsAddCmd(a),
		newEventsListCmd(a, false),
		newEventsListCmd(a, true),
		newEventsRemoveCmd(a),
		newEventsPlanCmd(a),
	)
	return cmd
}

func newEventsAddCmd(a *app) *cobra.Command {
	var (
		ne           models.NewEvent
		date, evType string
		outfit       []string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseDate(date)
			if err != nil {
				return err
			}
			et, err := models.ParseEventType(evType)
			if err != nil {
				return err
			}
			ne.Date, ne.Type, ne.OutfitIDs = t, et, outfit
			e := a.wardrobe.AddEvent(cmd.Context(), ne)
			fmt.Fprintf(out(cmd), "added %s on %s (%s)\n", e.Name, e.Date.Local().Format(time.DateOnly), e.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&ne.Name, "name", "", "event name")
	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD or RFC 3339")
	cmd.Flags().StringVar(&evType, "type", string(models.Casual), "one of "+eventTypeList())
	cmd.Flags().StringSliceVar(&outfit, "outfit", nil, "clothing ids to plan for the event")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func newEventsListCmd(a *app, upcoming bool) *cobra.Command {
	use, short := "list", "List all events"
	if upcoming {
		use, short = "upcoming", "List events from today on, soonest first"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			events := a.wardrobe.Events(ctx)
			if upcoming {
				events = a.wardrobe.UpcomingEvents(ctx)
			}
			if len(events) == 0 {
				fmt.Fprintln(out(cmd), "no events")
				return nil
			}
			tw := tabwriter.NewWriter(out(cmd), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDATE\tNAME\tTYPE\tOUTFIT")
			for _, e := range events {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.Date.Local().Format(time.DateOnly),
					e.Name, e.Type, outfitNames(a.wardrobe.PlannedOutfit(ctx, e)))
			}
			return tw.Flush()
		},
	}
}

func newEventsRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Remove an event",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := a.wardrobe.EventByID(cmd.Context(), args[0]); !ok {
				return fmt.Errorf("no event %q", args[0])
			}
			a.wardrobe.RemoveEvent(cmd.Context(), args[0])
			fmt.Fprintf(out(cmd), "removed %s\n", args[0])
			return nil
		},
	}
}

func newEventsPlanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "plan <event-id> [clothing-id...]",
		Short: "Set the planned outfit of an event; no items clears it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ids := append([]string{}, args[1:]...)
			for _, id := range ids {
				if _, ok := a.wardrobe.ClothingByID(ctx, id); !ok {
					return fmt.Errorf("no clothing item %q", id)
				}
			}
			e, ok := a.wardrobe.UpdateEvent(ctx, args[0], models.EventPatch{OutfitIDs: &ids})
			if !ok {
				return fmt.Errorf("no event %q", args[0])
			}
			fmt.Fprintf(out(cmd), "%s: %s\n", e.Name, outfitNames(a.wardrobe.PlannedOutfit(ctx, e)))
			return nil
		},
	}
}

func outfitNames(items []models.ClothingItem) string {
	if len(items) == 0 {
		return "-"
	}
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	return strings.Join(names, ", ")
}

func eventTypeList() string {
	names := make([]string, len(models.EventTypes))
	for i, t := range models.EventTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// parseDate accepts a calendar date, read as local midnight, or a full
// RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(time.DateOnly, s, time.Local); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC 3339", s)
	}
	return t.UTC(), nil
}
