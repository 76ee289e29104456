package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/trustgate/internal/decision"
	"github.com/sells-group/trustgate/internal/model"
	"github.com/sells-group/trustgate/pkg/anthropic"
)

var (
	askContainer  string
	askFilters    []string
	askThreshold  float64
	askStrictness string
	askNoAuto     bool
	askCache      bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question with the model, gated on data confidence",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initApp(ctx, "ask")
		if err != nil {
			return err
		}
		defer env.Close()

		question := strings.Join(args, " ")

		tier, err := model.ParseStrictness(askStrictness)
		if err != nil {
			return err
		}
		filters, err := parseFilters(askFilters)
		if err != nil {
			return err
		}
		container := askContainer
		if container == "" {
			container = cfg.Decision.DefaultContainer
		}

		records := env.Engine.Retrieve(ctx, container, filters)
		d := env.Engine.Generate(decision.Request{
			Query:      question,
			Threshold:  askThreshold,
			Strictness: tier,
			AutoDetect: !askNoAuto,
			UseCache:   askCache,
		}, records)

		if d.ShouldSayDontKnow {
			fmt.Println(d.DontKnowResponse)
			return nil
		}

		client := anthropic.NewClient(cfg.Anthropic.Key)
		resp, err := client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     cfg.Anthropic.Model,
			MaxTokens: int64(cfg.Anthropic.MaxTokens),
			System:    anthropic.BuildCachedSystemBlocks(d.Prompt.System),
			Messages: []anthropic.Message{
				{Role: "user", Content: d.Prompt.User},
			},
		})
		if err != nil {
			return err
		}

		reply := extractText(resp)
		resp.Usage.LogCost(resp.Model, "ask")

		fmt.Println(reply)

		check := decision.CheckResponse(question, reply, d.Prompt.Records, env.Engine.Threshold(), d.Strictness == model.StrictnessStrict)
		fmt.Println()
		if check.Valid {
			fmt.Println("validation:  passed")
		} else {
			fmt.Println("validation:  FAILED")
		}
		for _, issue := range check.Issues {
			fmt.Printf("  - %s\n", issue)
		}
		return nil
	},
}

// extractText concatenates the text blocks of a model response.
func extractText(resp *anthropic.MessageResponse) string {
	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}

func init() {
	askCmd.Flags().StringVar(&askContainer, "container", "", "container to query (default from config)")
	askCmd.Flags().StringArrayVar(&askFilters, "filter", nil, "filter as key=value, repeatable")
	askCmd.Flags().Float64Var(&askThreshold, "threshold", 0, "confidence threshold override")
	askCmd.Flags().StringVar(&askStrictness, "strictness", "", "strictness level: strict, moderate, or lenient")
	askCmd.Flags().BoolVar(&askNoAuto, "no-auto", false, "disable automatic strictness detection")
	askCmd.Flags().BoolVar(&askCache, "cache", false, "consult and populate the decision cache")
	rootCmd.AddCommand(askCmd)
}
