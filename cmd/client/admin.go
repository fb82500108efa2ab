package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/atinyakov/WardrobeKeeper/internal/client/storage"
	"github.com/atinyakov/WardrobeKeeper/internal/client/wardrobe"
	"github.com/atinyakov/WardrobeKeeper/internal/models"
)

func newSeedCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load sample clothes and a sample profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n := a.wardrobe.Seed(cmd.Context(), force)
			if n == 0 {
				fmt.Fprintln(out(cmd), "wardrobe is not empty, nothing seeded (use --force)")
				return nil
			}
			fmt.Fprintf(out(cmd), "seeded %d items\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "seed even when the wardrobe already has items")
	return cmd
}

func newResetCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all clothes, history, events and the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("reset deletes all wardrobe data; pass --yes to confirm")
			}
			a.wardrobe.Reset(cmd.Context())
			fmt.Fprintln(out(cmd), "wardrobe reset")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

// newWatchCmd prints a line whenever another process changes the wardrobe.
// File stores are followed with filesystem notifications, SQL stores are
// polled.
func newWatchCmd(a *app) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow changes made by other wardrobe processes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return fmt.Errorf("--interval must be positive, got %s", interval)
			}
			ctx := cmd.Context()
			w := out(cmd)

			stopClothes := a.wardrobe.OnClothesChange(func(items []models.ClothingItem) {
				fmt.Fprintf(w, "%s clothes changed: %d items, %d recommended\n",
					time.Now().Format(time.TimeOnly), len(items), len(wardrobe.Recommended(items, time.Now())))
			})
			defer stopClothes()
			stopEvents := a.wardrobe.OnEventsChange(func(events []models.Event) {
				fmt.Fprintf(w, "%s events changed: %d events, %d upcoming\n",
					time.Now().Format(time.TimeOnly), len(events), len(wardrobe.Upcoming(events, time.Now())))
			})
			defer stopEvents()

			if a.files != nil {
				watcher, err := storage.NewWatcher(a.store, a.files, a.log)
				if err != nil {
					return err
				}
				a.store.CloseWith(watcher)
				if err := watcher.Start(ctx); err != nil {
					return err
				}
				fmt.Fprintf(w, "watching %s\n", a.files.Dir())
			} else {
				if _, err := storage.StartPolling(ctx, a.store, interval, wardrobe.ClothesKey, wardrobe.EventsKey); err != nil {
					return err
				}
				fmt.Fprintf(w, "polling %s store every %s\n", strings.ToLower(a.opts.store), interval)
			}

			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "poll interval for SQL stores")
	return cmd
}
