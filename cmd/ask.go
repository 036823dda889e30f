package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/finsight-group/finrag-cli/internal/model"
)

var (
	askShowRoute bool
	askModel     string
	askIndexPath string
	askStorePath string
	askTopK      int
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question about the ingested reports",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		question := strings.Join(args, " ")

		if askModel != "" {
			cfg.Anthropic.Model = askModel
		}
		if askIndexPath != "" {
			cfg.Index.Path = askIndexPath
		}
		if askStorePath != "" {
			cfg.Store.Path = askStorePath
		}
		if askTopK > 0 {
			cfg.Agent.SearchTopK = askTopK
		}

		env, err := initAnswerEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		answer, decision, err := env.agent.Answer(ctx, question)
		if err != nil {
			return err
		}

		fmt.Println(answer)
		if askShowRoute {
			printRoute(decision)
		}
		return nil
	},
}

func printRoute(decision *model.RouteDecision) {
	out, err := json.MarshalIndent(decision, "", "  ")
	if err != nil {
		return
	}
	fmt.Println(string(out))
}

func init() {
	askCmd.Flags().BoolVar(&askShowRoute, "show-route", false, "print the capability audit trail as JSON")
	askCmd.Flags().StringVar(&askModel, "model", "", "model ID (default from config)")
	askCmd.Flags().StringVar(&askIndexPath, "index", "", "index artifact path (default from config)")
	askCmd.Flags().StringVar(&askStorePath, "db", "", "sqlite store path (default from config)")
	askCmd.Flags().IntVar(&askTopK, "top-k", 0, "semantic search passages per query (default from config)")
	rootCmd.AddCommand(askCmd)
}
