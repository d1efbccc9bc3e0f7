package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/upi-tracker/internal/categories"
	"github.com/dvloznov/upi-tracker/internal/categorize"
	"github.com/dvloznov/upi-tracker/internal/domain"
)

// optionalString is a string flag that records whether it was set, so an
// update can tell "unchanged" apart from a value.
type optionalString struct {
	value *string
}

func (o *optionalString) String() string {
	if o.value == nil {
		return ""
	}
	return *o.value
}

func (o *optionalString) Set(s string) error {
	o.value = &s
	return nil
}

func runCategories(log zerolog.Logger, args []string) {
	action := "list"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		action, args = args[0], args[1:]
	}

	fs := flag.NewFlagSet("categories "+action, flag.ExitOnError)
	key := fs.String("key", "", "Category key")
	var label, icon, color optionalString
	fs.Var(&label, "label", "Display label")
	fs.Var(&icon, "icon", "Icon name (see 'categories options')")
	fs.Var(&color, "color", "Hex color such as #F59E0B")
	fs.Parse(args)

	if action == "options" {
		fmt.Printf("Icons:  %s\n", strings.Join(categories.AvailableIcons(), ", "))
		fmt.Printf("Colors: %s\n", strings.Join(categories.AvailableColors(), ", "))
		return
	}

	ctx, services, closeFn := openServices(log)
	defer closeFn()
	store := services.Categories

	switch action {
	case "list":
		for _, c := range store.List(ctx) {
			fmt.Printf("%-14s %-16s %-12s %s\n", c.Key, c.Label, c.Icon, c.Color)
		}

	case "add":
		c, err := store.Add(ctx, categories.NewCategory{Label: label.String(), Icon: icon.String(), Color: color.String()})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to add category")
		}
		fmt.Printf("Added %s\n", c.Key)

	case "update":
		if *key == "" {
			log.Fatal().Msg("Error: --key is required")
		}
		if !store.Update(ctx, *key, categories.Update{Label: label.value, Icon: icon.value, Color: color.value}) {
			log.Fatal().Str("key", *key).Msg("Category not updated")
		}
		fmt.Printf("Updated %s\n", *key)

	case "delete":
		if *key == "" {
			log.Fatal().Msg("Error: --key is required")
		}
		if !store.Delete(ctx, *key) {
			log.Fatal().Str("key", *key).Msg("Category not deleted")
		}
		fmt.Printf("Deleted %s\n", *key)

	case "reset":
		if !store.Reset(ctx) {
			log.Fatal().Msg("Failed to reset categories")
		}
		fmt.Println("Categories reset to defaults.")

	default:
		fmt.Fprintf(os.Stderr, "Unknown categories action: %s (list, add, update, delete, reset, options)\n", action)
		os.Exit(1)
	}
}

func runSuggest(log zerolog.Logger, args []string) {
	fs := flag.NewFlagSet("suggest", flag.ExitOnError)
	pa := fs.String("pa", "", "Payee UPI ID")
	pn := fs.String("pn", "", "Payee name")
	note := fs.String("note", "", "Note")
	mc := fs.String("mc", "", "Merchant category code")
	fs.Parse(args)

	ctx, services, closeFn := openServices(log)
	defer closeFn()

	suggestion, err := services.Suggester.Suggest(ctx, categorize.Request{
		PayeeName:            *pn,
		PayeeAddress:         *pa,
		Note:                 *note,
		MerchantCategoryCode: *mc,
	}, services.Categories.List(ctx))
	if err != nil {
		log.Warn().Err(err).Msg("Suggestion fell back to the default category")
	}
	printJSON(suggestion)
}

func runProfile(log zerolog.Logger, args []string) {
	action := "show"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		action, args = args[0], args[1:]
	}

	fs := flag.NewFlagSet("profile "+action, flag.ExitOnError)
	name := fs.String("name", "", "Display name")
	avatar := fs.String("avatar", "", "Avatar ID")
	fs.Parse(args)

	ctx, services, closeFn := openServices(log)
	defer closeFn()
	store := services.Profile

	switch action {
	case "show":
		p, ok := store.GetProfile(ctx)
		if !ok {
			fmt.Println("No profile set.")
		} else {
			fmt.Printf("Name:   %s\nAvatar: %s\n", p.Name, p.AvatarID)
		}
		fmt.Printf("Onboarding complete: %t\n", store.IsOnboardingComplete(ctx))

	case "set":
		if err := store.UpdateProfile(ctx, domain.UserProfile{Name: *name, AvatarID: *avatar}); err != nil {
			log.Fatal().Err(err).Msg("Failed to save profile")
		}
		fmt.Println("Profile saved.")

	case "onboard":
		if err := store.CompleteOnboardingWithProfile(ctx, domain.UserProfile{Name: *name, AvatarID: *avatar}); err != nil {
			log.Fatal().Err(err).Msg("Failed to complete onboarding")
		}
		fmt.Println("Onboarding complete.")

	default:
		fmt.Fprintf(os.Stderr, "Unknown profile action: %s (show, set, onboard)\n", action)
		os.Exit(1)
	}
}
