package tools

import (
	"context"
	"fmt"

	"github.com/tradelm/tradelm-ai/internal/backend"
	"github.com/tradelm/tradelm-ai/internal/llm"
)

// TradeSummaryToolName is the single tool advertised to the model today.
const TradeSummaryToolName = "get_user_trade_summary"

// TradeSummaryTool builds the tool that fetches a user's anonymized trading
// performance summary from the main backend.
func TradeSummaryTool(client backend.Client) Tool {
	return Tool{
		Def: llm.ToolDef{
			Name:        TradeSummaryToolName,
			Description: "Use this tool to fetch the user's current, anonymized trading performance summary (PNL, best strategy, mistakes) from the database to answer analytical questions.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"user_id": map[string]any{
						"type":        "string",
						"description": "The anonymous ID of the user whose data should be retrieved.",
					},
				},
				"required": []string{"user_id"},
			},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			userID, ok := args["user_id"].(string)
			if !ok {
				return "", fmt.Errorf("'user_id' argument must be a string")
			}
			return client.TradeSummary(ctx, userID)
		},
	}
}
