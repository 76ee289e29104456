package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/trustgate/internal/decision"
	"github.com/sells-group/trustgate/internal/model"
)

var (
	queryContainer  string
	queryFilters    []string
	queryThreshold  float64
	queryStrictness string
	queryNoAuto     bool
	queryCache      bool
	queryJSON       bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Run one confidence-gated decision and print it",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initApp(ctx, "query")
		if err != nil {
			return err
		}
		defer env.Close()

		question := strings.Join(args, " ")

		tier, err := model.ParseStrictness(queryStrictness)
		if err != nil {
			return err
		}
		filters, err := parseFilters(queryFilters)
		if err != nil {
			return err
		}
		container := queryContainer
		if container == "" {
			container = cfg.Decision.DefaultContainer
		}

		records := env.Engine.Retrieve(ctx, container, filters)
		d := env.Engine.Generate(decision.Request{
			Query:      question,
			Threshold:  queryThreshold,
			Strictness: tier,
			AutoDetect: !queryNoAuto,
			UseCache:   queryCache,
		}, records)

		if queryJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(d)
		}

		printDecision(d)
		return nil
	},
}

// parseFilters turns repeated --filter key=value flags into a payload.
func parseFilters(pairs []string) (model.Payload, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	filters := model.Payload{}
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, eris.Errorf("invalid filter %q, want key=value", pair)
		}
		filters[key] = value
	}
	return filters, nil
}

func printDecision(d decision.Decision) {
	verdict := "ANSWER"
	if d.ShouldSayDontKnow {
		verdict = "DON'T KNOW"
	}
	fmt.Printf("decision:    %s\n", verdict)
	fmt.Printf("confidence:  %.3f (threshold %.3f)\n", d.Confidence, d.Meta.Threshold)
	fmt.Printf("strictness:  %s\n", d.Strictness)
	fmt.Printf("records:     %d\n", len(d.Prompt.Records))
	fmt.Printf("cached:      %v\n", d.Meta.CacheUsed)
	fmt.Println()
	if d.ShouldSayDontKnow {
		fmt.Println("response:")
		fmt.Println(d.DontKnowResponse)
		return
	}
	fmt.Println("system prompt:")
	fmt.Println(d.Prompt.System)
	fmt.Println()
	fmt.Println("user prompt:")
	fmt.Println(d.Prompt.User)
}

func init() {
	queryCmd.Flags().StringVar(&queryContainer, "container", "", "container to query (default from config)")
	queryCmd.Flags().StringArrayVar(&queryFilters, "filter", nil, "filter as key=value, repeatable")
	queryCmd.Flags().Float64Var(&queryThreshold, "threshold", 0, "confidence threshold override")
	queryCmd.Flags().StringVar(&queryStrictness, "strictness", "", "strictness level: strict, moderate, or lenient")
	queryCmd.Flags().BoolVar(&queryNoAuto, "no-auto", false, "disable automatic strictness detection")
	queryCmd.Flags().BoolVar(&queryCache, "cache", false, "consult and populate the decision cache")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "print the decision as JSON")
	rootCmd.AddCommand(queryCmd)
}
