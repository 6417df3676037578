package caption

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
)

// The bot API renders only a small HTML subset in captions, so the goldmark
// output is flattened: headings become bold lines, lists become bullet or
// numbered lines and paragraphs become blank-line separated text.
var (
	headingRe   = regexp.MustCompile(`(?s)<h[1-6][^>]*>(.*?)</h[1-6]>`)
	olRe        = regexp.MustCompile(`(?s)<ol[^>]*>(.*?)</ol>`)
	ulRe        = regexp.MustCompile(`(?s)<ul[^>]*>(.*?)</ul>`)
	liRe        = regexp.MustCompile(`(?s)<li[^>]*>(.*?)</li>`)
	paragraphRe = regexp.MustCompile(`(?s)<p>(.*?)</p>`)
	blockquote  = regexp.MustCompile(`(?s)<blockquote>(.*?)</blockquote>`)
	breakRe     = regexp.MustCompile(`<br\s*/?>`)
	hrRe        = regexp.MustCompile(`<hr\s*/?>`)
	imgRe       = regexp.MustCompile(`<img[^>]*>`)
	commentRe   = regexp.MustCompile(`(?s)<!--.*?-->`)
	codeBlockRe = regexp.MustCompile(`(?s)<pre><code[^>]*>`)
	blankRunRe  = regexp.MustCompile(`\n{3,}`)
)

var inlineTags = strings.NewReplacer(
	"<strong>", "<b>", "</strong>", "</b>",
	"<em>", "<i>", "</em>", "</i>",
	"<del>", "<s>", "</del>", "</s>",
)

// RenderBody converts Markdown to the caption HTML subset.
func RenderBody(md string) (string, error) {
	md = strings.TrimSpace(md)
	if md == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return normalizeForBot(buf.String()), nil
}

func normalizeForBot(html string) string {
	html = headingRe.ReplaceAllStringFunc(html, func(block string) string {
		parts := headingRe.FindStringSubmatch(block)
		return "<b>" + strings.TrimSpace(parts[1]) + "</b>\n"
	})
	html = flattenLists(html)
	html = blockquote.ReplaceAllString(html, "$1")
	html = paragraphRe.ReplaceAllString(html, "$1\n\n")
	html = breakRe.ReplaceAllString(html, "\n")
	html = hrRe.ReplaceAllString(html, "\n")
	html = imgRe.ReplaceAllString(html, "")
	html = commentRe.ReplaceAllString(html, "")
	html = codeBlockRe.ReplaceAllString(html, "<pre>")
	html = strings.ReplaceAll(html, "</code></pre>", "</pre>")
	html = inlineTags.Replace(html)
	html = blankRunRe.ReplaceAllString(html, "\n\n")
	return strings.TrimSpace(html)
}

func flattenLists(html string) string {
	html = olRe.ReplaceAllStringFunc(html, func(block string) string {
		items := liRe.FindAllStringSubmatch(block, -1)
		if len(items) == 0 {
			return block
		}
		var b strings.Builder
		for i, item := range items {
			b.WriteString(fmt.Sprintf("%d. %s\n", i+1, listText(item[1])))
		}
		return b.String() + "\n"
	})

	return ulRe.ReplaceAllStringFunc(html, func(block string) string {
		items := liRe.FindAllStringSubmatch(block, -1)
		if len(items) == 0 {
			return block
		}
		var b strings.Builder
		for _, item := range items {
			b.WriteString("• ")
			b.WriteString(listText(item[1]))
			b.WriteString("\n")
		}
		return b.String() + "\n"
	})
}

// Loose lists wrap each item in <p>.
func listText(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "<p>")
	s = strings.TrimSuffix(s, "</p>")
	return strings.TrimSpace(s)
}
