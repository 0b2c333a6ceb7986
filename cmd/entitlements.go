package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/complypoint/complyctl/pkg/entitlements"
	"github.com/complypoint/complyctl/pkg/session"
	"github.com/complypoint/complyctl/pkg/upgrade"
)

var entitlementsCmd = &cobra.Command{
	Use:   "entitlements",
	Short: "Show the current account's plan and feature entitlements",
	Run: func(cmd *cobra.Command, args []string) {
		_, ents := mustFetchEntitlements()

		fmt.Printf("Plan: %s (%s)\n", ents.PlanName, ents.SubscriptionStatus)

		keys := make([]string, 0, len(ents.Features))
		for k := range ents.Features {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			f := ents.Features[k]
			mark := " "
			if f.Enabled {
				mark = "x"
			}
			fmt.Printf("  [%s] %-30s %s\n", mark, k, f.Name)
		}
	},
}

var entitlementsCheckCmd = &cobra.Command{
	Use:   "check <feature-key>",
	Short: "Check a single feature; prints an upgrade prompt when not entitled",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store, _ := mustFetchEntitlements()
		key := args[0]

		out := upgrade.FeatureGate(store, key, func() string {
			return fmt.Sprintf("%s: enabled", key)
		}, nil)
		fmt.Println(out)
		if !store.HasFeature(key) {
			os.Exit(1)
		}
	},
}

// mustFetchEntitlements fetches entitlements for the configured account and
// seeds the session store. A failed fetch leaves the store empty, so every
// downstream gate fails closed.
func mustFetchEntitlements() (*session.Store, *entitlements.Entitlements) {
	client, err := newAPIClient()
	if err != nil {
		presentError(err)
		os.Exit(1)
	}

	store := session.NewStore()
	store.SetActor(viper.GetString("account.email"))

	ents, err := (&entitlements.Client{HTTP: client}).Fetch(context.Background())
	if err != nil {
		store.SetEntitlements(nil)
		presentError(err)
		os.Exit(1)
	}
	store.SetEntitlements(ents)
	return store, ents
}

func init() {
	rootCmd.AddCommand(entitlementsCmd)
	entitlementsCmd.AddCommand(entitlementsCheckCmd)
}
