package fetch

import (
	"context"

	"github.com/nugget/agentic/internal/tools"
)

// ToolName is the name the fetcher is registered under.
const ToolName = "fetch_url"

// Tool returns the fetch_url tool backed by f.
func Tool(f *Fetcher) *tools.Tool {
	return &tools.Tool{
		Name:        ToolName,
		Description: "Fetch a web page and return its title and readable text (or Markdown). Text is truncated to a fixed length.",
		Schema: tools.Schema{Params: []tools.Param{
			{Name: "url", Kind: tools.KindString, Description: "URL to fetch and extract content from.", Required: true},
			{Name: "format", Kind: tools.KindString, Description: "Output format.", Enum: []string{string(FormatText), string(FormatMarkdown)}, Default: string(FormatText)},
		}},
		Handler: func(ctx context.Context, args tools.Args) (any, error) {
			return f.Fetch(ctx, args.String("url"), Format(args.String("format")))
		},
	}
}
