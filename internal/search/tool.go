package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/nugget/agentic/internal/tools"
)

// ToolName is the name web search is registered under.
const ToolName = "web_search"

// MaxResultsLimit caps what a model may ask for in one call.
const MaxResultsLimit = 20

// Tool returns the web_search tool backed by mgr. The result is the
// ordered result list; provider failures are returned as errors.
func Tool(mgr *Manager) *tools.Tool {
	return &tools.Tool{
		Name:        ToolName,
		Description: "Search the web and return the top results with title, url and snippet.",
		Schema: tools.Schema{Params: []tools.Param{
			{Name: "query", Kind: tools.KindString, Description: "The search query string.", Required: true},
			{Name: "max_results", Kind: tools.KindInteger, Description: fmt.Sprintf("Maximum number of results to return (1-%d).", MaxResultsLimit), Default: DefaultMaxResults},
			{Name: "language", Kind: tools.KindString, Description: "ISO 639-1 language code for results (e.g., 'en', 'de')."},
			{Name: "provider", Kind: tools.KindString, Description: "Search provider to use. Omit for default."},
		}},
		Handler: toolHandler(mgr),
	}
}

func toolHandler(mgr *Manager) tools.Handler {
	return func(ctx context.Context, args tools.Args) (any, error) {
		query := strings.TrimSpace(args.String("query"))
		if query == "" {
			return map[string]any{"error": "query is empty"}, nil
		}

		n := args.IntOr("max_results", DefaultMaxResults)
		if n < 1 {
			n = DefaultMaxResults
		}
		opts := Options{
			Count:    int(min(n, MaxResultsLimit)),
			Language: args.String("language"),
		}

		if provider := args.String("provider"); provider != "" {
			return mgr.SearchWith(ctx, provider, query, opts)
		}
		return mgr.Search(ctx, query, opts)
	}
}
