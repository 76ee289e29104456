package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Probe source connectivity and print pipeline counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initApp(ctx, "status")
		if err != nil {
			return err
		}
		defer env.Close()

		health := env.Checker.Check(ctx)
		snap := env.Collector.Collect()

		if statusJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"sources": health,
				"stats":   snap,
			})
		}

		fmt.Println("sources:")
		for _, h := range health {
			state := "ok"
			if !h.OK {
				state = "DOWN: " + h.Error
			}
			fmt.Printf("  %-10s %s (%.1fms)\n", h.Source, state, h.LatencyMS)
		}

		fmt.Println()
		fmt.Println("breakers:")
		names := make([]string, 0, len(snap.Breakers))
		for name := range snap.Breakers {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %-10s %s\n", name, snap.Breakers[name])
		}

		fmt.Println()
		fmt.Println("decisions:")
		printStats(snap.Decisions)

		fmt.Println()
		fmt.Println("webhooks:")
		printStats(snap.Webhooks)
		fmt.Printf("  %-24s %d\n", "dead_letters", snap.DLQDepth)

		return nil
	},
}

func printStats(stats map[string]any) {
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("  %-24s %v\n", key, stats[key])
	}
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print status as JSON")
	rootCmd.AddCommand(statusCmd)
}
