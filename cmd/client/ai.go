package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/atinyakov/WardrobeKeeper/internal/client/assistant"
	"github.com/atinyakov/WardrobeKeeper/internal/client/gateway"
	"github.com/atinyakov/WardrobeKeeper/internal/models"
)

func newProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or change the wardrobe owner's profile",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := a.wardrobe.Profile(cmd.Context())
			image := "not set"
			if p.ProfileImage != "" {
				image = "set"
			}
			fmt.Fprintf(out(cmd), "name:  %s\nimage: %s\n", orNA(p.Name), image)
			return nil
		},
	})

	var name, image string
	set := &cobra.Command{
		Use:   "set",
		Short: "Change the profile name or photo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := a.wardrobe.Profile(cmd.Context())
			if cmd.Flags().Changed("name") {
				p.Name = name
			}
			if cmd.Flags().Changed("image") {
				ref, err := imageRef(image)
				if err != nil {
					return err
				}
				p.ProfileImage = ref
			}
			a.wardrobe.SetProfile(cmd.Context(), p)
			fmt.Fprintln(out(cmd), "profile updated")
			return nil
		},
	}
	set.Flags().StringVar(&name, "name", "", "display name")
	set.Flags().StringVar(&image, "image", "", "photo file, URL or data URI used for try-on")
	cmd.AddCommand(set)
	return cmd
}

func newTryOnCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tryon <clothing-id...>",
		Short: "Ask the stylist how the items would look on you",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.assistant.TryOn(cmd.Context(), args)
			if err != nil {
				return aiError(err)
			}
			fmt.Fprintln(out(cmd), text)
			return nil
		},
	}
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var add bool
	cmd := &cobra.Command{
		Use:   "analyze <image>",
		Short: "Detect the category, name and colour of a garment photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := imageRef(args[0])
			if err != nil {
				return err
			}
			analysis, ok, err := a.assistant.AnalyzeClothing(cmd.Context(), ref)
			if err != nil {
				return aiError(err)
			}
			if !ok {
				return errors.New("could not recognise the garment, add it manually")
			}
			fmt.Fprintf(out(cmd), "category: %s\nname:     %s\ncolor:    %s\n",
				analysis.Category, analysis.Name, analysis.Color)
			if add {
				item := a.wardrobe.AddClothing(cmd.Context(), models.NewClothing{
					Name:     analysis.Name,
					Category: analysis.Category,
					ImageURL: ref,
					Color:    analysis.Color,
				})
				fmt.Fprintf(out(cmd), "added %s (%s)\n", item.Name, item.ID)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&add, "add", false, "add the analysed item to the wardrobe")
	return cmd
}

func newSuggestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest [occasion]",
		Short: "Suggest outfits from items that are out of cooldown",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			occasion := strings.Join(args, " ")
			outfits, err := a.assistant.SuggestOutfits(cmd.Context(), occasion)
			if err != nil {
				return aiError(err)
			}
			if len(outfits) == 0 {
				fmt.Fprintln(out(cmd), "no suggestions")
				return nil
			}
			for i, o := range outfits {
				fmt.Fprintf(out(cmd), "%d. %s: %s\n", i+1, o.Name, outfitNames(o.Items))
				if o.Tip != "" {
					fmt.Fprintf(out(cmd), "   tip: %s\n", o.Tip)
				}
			}
			return nil
		},
	}
}

// newShopCmd runs the interactive shopping assistant loop.
func newShopCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shop",
		Short: "Chat with the shopping assistant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := out(cmd)
			conv := &assistant.Conversation{}
			scanner := bufio.NewScanner(cmd.InOrStdin())

			fmt.Fprintln(w, "Ask for shopping advice. Commands: links <term>, exit")
			for {
				fmt.Fprint(w, "shop> ")
				if !scanner.Scan() {
					fmt.Fprintln(w)
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				switch {
				case line == "":
					continue
				case line == "exit" || line == "quit":
					return nil
				case strings.HasPrefix(line, "links "):
					printLinks(cmd, strings.TrimSpace(strings.TrimPrefix(line, "links ")))
					continue
				}

				reply, err := a.assistant.Ask(cmd.Context(), conv, line)
				if errors.Is(err, assistant.ErrEmptyQuestion) {
					continue
				}
				fmt.Fprintln(w, reply.Content)
				if err != nil {
					continue
				}
				for _, term := range assistant.SearchTerms(reply.Content) {
					printLinks(cmd, term)
				}
			}
		},
	}
}

func printLinks(cmd *cobra.Command, term string) {
	if term == "" {
		return
	}
	fmt.Fprintf(out(cmd), "  %s:\n", term)
	for _, l := range assistant.ShoppingLinks(term) {
		fmt.Fprintf(out(cmd), "    %-10s %s\n", l.Site, l.URL)
	}
}

func newStatusCmd(a *app) *cobra.Command {
	var validate bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check whether the AI gateway is reachable and configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !a.gateway.CheckAvailability(ctx) {
				fmt.Fprintln(out(cmd), "gateway: unavailable")
				return nil
			}
			fmt.Fprintln(out(cmd), "gateway: available")
			if !validate {
				return nil
			}
			valid, err := a.gateway.ValidateKey(ctx)
			if err != nil {
				return aiError(err)
			}
			fmt.Fprintf(out(cmd), "api key: valid=%t\n", valid)
			return nil
		},
	}
	cmd.Flags().BoolVar(&validate, "validate", false, "also verify the API key with the provider")
	return cmd
}

// aiError replaces gateway failures with their user-facing advisory.
func aiError(err error) error {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) || errors.Is(err, gateway.ErrEmptyResponse) {
		return errors.New(gateway.UserMessage(err))
	}
	return err
}
