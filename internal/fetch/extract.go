package fetch

import (
	"bytes"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
)

// invisible are elements whose content never reaches the reader.
const invisible = "script, style, noscript"

// extractHTML parses a page and returns its title and either its visible
// text, whitespace-normalized, or its Markdown rendering.
func extractHTML(raw []byte, format Format, base *url.URL) (string, string, error) {
	root, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return "", "", err
	}
	doc := goquery.NewDocumentFromNode(root)
	doc.Find(invisible).Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())

	if format == FormatMarkdown {
		domain := ""
		if base != nil {
			domain = base.Scheme + "://" + base.Host
		}
		conv := md.NewConverter(domain, true, nil)
		// The head carries nothing worth rendering.
		doc.Find("head").Remove()
		return title, strings.TrimSpace(conv.Convert(doc.Selection)), nil
	}

	return title, visibleText(root), nil
}

// extractMarkdown renders a Markdown document to HTML and extracts from
// that, so both formats treat Markdown sources like any other page.
func extractMarkdown(raw []byte, format Format, base *url.URL) (string, string, error) {
	if format == FormatMarkdown {
		title := ""
		for _, line := range strings.Split(string(raw), "\n") {
			if strings.HasPrefix(line, "# ") {
				title = strings.TrimSpace(strings.TrimPrefix(line, "# "))
				break
			}
		}
		return title, strings.TrimSpace(string(raw)), nil
	}

	var buf bytes.Buffer
	if err := goldmark.Convert(raw, &buf); err != nil {
		return "", "", err
	}
	title, text, err := extractHTML(buf.Bytes(), FormatText, base)
	if err != nil {
		return "", "", err
	}
	if title == "" {
		doc, derr := goquery.NewDocumentFromReader(bytes.NewReader(buf.Bytes()))
		if derr == nil {
			title = strings.TrimSpace(doc.Find("h1").First().Text())
		}
	}
	return title, text, nil
}

// visibleText joins every text node with a space and collapses runs of
// whitespace. Comments are not text.
func visibleText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return normalizeSpace(b.String())
}

// normalizeSpace collapses all runs of whitespace to single spaces.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
