package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/safebite/safebite/internal/engine"
	"github.com/safebite/safebite/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage dietary profiles",
	}

	cmd.AddCommand(profileSetCmd())
	cmd.AddCommand(profileShowCmd())

	return cmd
}

func profileSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <id>",
		Short: "Create or replace a dietary profile",
		Long: `Create or replace a profile from a list of restrictions.

Each restriction is category:key:severity, where category is one of
allergen, religious, medical or lifestyle, and severity is one of
irritation, severe or anaphylactic.

Examples:
  safebite profile set default -r allergen:milk:severe
  safebite profile set family -r allergen:peanuts:anaphylactic -r religious:pork:severe`,
		Args: cobra.ExactArgs(1),
		RunE: runProfileSet,
	}

	cmd.Flags().StringArrayP("restriction", "r", nil, "Restriction as category:key:severity (repeatable)")

	return cmd
}

func runProfileSet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	specs, err := cmd.Flags().GetStringArray("restriction")
	if err != nil {
		return err
	}
	if len(specs) == 0 {
		return fmt.Errorf("at least one --restriction is required")
	}

	profile, err := buildProfile(args[0], specs)
	if err != nil {
		return err
	}

	logger := slog.Default()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	q, err := openQueue(logger)
	if err != nil {
		return fmt.Errorf("failed to open offline queue: %w", err)
	}
	defer func() { _ = q.Close() }()

	if err := engine.SaveProfileOrDefer(ctx, store, q, profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	cmd.Printf("Saved profile %q with %d restriction(s)\n", profile.ID, len(profile.Restrictions))
	return nil
}

func profileShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Show a dietary profile",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runProfileShow,
	}

	cmd.Flags().Bool("json", false, "Emit the profile as JSON")
	_ = viper.BindPFlag("profile.json", cmd.Flags().Lookup("json"))

	return cmd
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	id := "default"
	if len(args) == 1 {
		id = args[0]
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	profile, err := store.GetProfile(ctx, id)
	if err != nil {
		return err
	}

	if viper.GetBool("profile.json") {
		return printJSON(cmd, profile)
	}

	cmd.Printf("Profile %q\n", profile.ID)
	for _, r := range profile.Restrictions {
		cmd.Printf("  %s:%s (%s)\n", r.Category, r.Key, r.Severity)
	}
	return nil
}

var validCategories = map[model.RestrictionCategory]bool{
	model.CategoryAllergen:  true,
	model.CategoryReligious: true,
	model.CategoryMedical:   true,
	model.CategoryLifestyle: true,
}

// buildProfile assembles a profile from restriction triples, rejecting
// duplicate (category, key) pairs so a typo can't silently shadow an
// earlier severity.
func buildProfile(id string, specs []string) (model.UserProfile, error) {
	profile := model.UserProfile{ID: id}
	for _, spec := range specs {
		r, err := parseRestriction(spec)
		if err != nil {
			return model.UserProfile{}, err
		}
		if _, exists := profile.Restriction(r.Category, r.Key); exists {
			return model.UserProfile{}, fmt.Errorf("duplicate restriction %s:%s", r.Category, r.Key)
		}
		profile.Restrictions = append(profile.Restrictions, r)
	}
	return profile, nil
}

// parseRestriction parses a category:key:severity triple.
func parseRestriction(spec string) (model.Restriction, error) {
	parts := strings.Split(spec, ":")
	if len(parts) != 3 {
		return model.Restriction{}, fmt.Errorf("invalid restriction %q: want category:key:severity", spec)
	}

	category := model.RestrictionCategory(strings.ToLower(strings.TrimSpace(parts[0])))
	if !validCategories[category] {
		return model.Restriction{}, fmt.Errorf("invalid restriction category %q", parts[0])
	}

	key := strings.ToLower(strings.TrimSpace(parts[1]))
	if key == "" {
		return model.Restriction{}, fmt.Errorf("invalid restriction %q: empty key", spec)
	}

	severity, err := model.ParseSeverity(strings.TrimSpace(parts[2]))
	if err != nil {
		return model.Restriction{}, fmt.Errorf("invalid restriction %q: %w", spec, err)
	}

	return model.Restriction{Category: category, Key: key, Severity: severity}, nil
}
