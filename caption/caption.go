package caption

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	"rubika_content_bot/content"
	"rubika_content_bot/localize"
)

// Rand is the randomness the formatter draws from. *math/rand/v2.Rand
// satisfies it.
type Rand interface {
	IntN(n int) int
}

const (
	pickDescriptions = 3
	pickHashtags     = 3
	maxComments      = 10
	maxShares        = 20
)

// Formatter assembles post captions.
type Formatter struct {
	tables     *localize.Tables
	translator localize.Translator
	rnd        Rand
	locale     language.Tag
	logger     *logrus.Logger
}

// NewFormatter builds a Formatter. A nil translator means table-only
// translation.
func NewFormatter(tables *localize.Tables, translator localize.Translator, rnd Rand, locale language.Tag, logger *logrus.Logger) *Formatter {
	if translator == nil {
		translator = localize.TableTranslator{Table: tables.Translation}
	}
	return &Formatter{
		tables:     tables,
		translator: translator,
		rnd:        rnd,
		locale:     locale,
		logger:     logger,
	}
}

// Format builds the caption for item. The output is HTML for parse_mode
// HTML: every piece of item text is escaped, the optional Markdown body is
// rendered to the supported tag subset.
func (f *Formatter) Format(ctx context.Context, item content.Item, category localize.Category) string {
	bucket := f.tables.Bucket(category)

	title := item.TitleFA
	if title == "" {
		title = f.translator.Translate(ctx, item.Title)
	}

	emoji := pick(f.rnd, bucket.Emoji)
	descs := sample(f.rnd, bucket.Descriptions, pickDescriptions)
	tags := mergeTags(sample(f.rnd, bucket.Hashtags, pickHashtags), item.Tags)
	comments := f.rnd.IntN(maxComments) + 1
	shares := f.rnd.IntN(maxShares) + 1
	sparkle := pick(f.rnd, f.tables.Sparkles)
	ad := pick(f.rnd, f.tables.AdLinks)

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n", emoji, html.EscapeString(title))
	for _, d := range descs {
		fmt.Fprintf(&b, "«%s»\n", html.EscapeString(d))
	}

	if body := f.body(item); body != "" {
		b.WriteString("\n")
		b.WriteString(body)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(html.EscapeString(strings.Join(tags, " ")))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s لایک | %d نظر | %d به اشتراک گذاشته شده %s",
		FormatLikes(item.Likes, f.locale), comments, shares, sparkle)
	if item.Source != "" {
		fmt.Fprintf(&b, "\n📰 %s", html.EscapeString(item.Source))
	}
	b.WriteString("\n\n")
	b.WriteString(html.EscapeString(ad))

	return b.String()
}

func (f *Formatter) body(item content.Item) string {
	if strings.TrimSpace(item.BodyFA) == "" {
		return ""
	}
	body, err := RenderBody(item.BodyFA)
	if err != nil {
		if f.logger != nil {
			f.logger.WithError(err).WithField("row", item.Row).Warn("Markdown body render failed; using plain text")
		}
		return html.EscapeString(strings.TrimSpace(item.BodyFA))
	}
	return body
}

func pick(r Rand, list []string) string {
	if len(list) == 0 {
		return ""
	}
	return list[r.IntN(len(list))]
}

// sample returns min(k, len(list)) distinct elements in random order.
func sample(r Rand, list []string, k int) []string {
	pool := append([]string(nil), list...)
	if k > len(pool) {
		k = len(pool)
	}
	for i := 0; i < k; i++ {
		j := i + r.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}

func mergeTags(base, extra []string) []string {
	seen := make(map[string]bool, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, t := range append(base, extra...) {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
