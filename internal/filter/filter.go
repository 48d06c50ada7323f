package filter

import (
	"regexp"
	"strings"

	"github.com/DeafMist/rss-article-fetcher/internal/models"
	"github.com/DeafMist/rss-article-fetcher/internal/processing"
)

// Result is the outcome of one filtering pass.
type Result struct {
	Articles []models.EnrichedArticle
	Stats    models.DiscardStats
}

type matcher struct {
	keyword string
	re      *regexp.Regexp
}

// NotKeywords returns the lower-cased keywords of every NOT item across all
// groups. Duplicates are kept.
func NotKeywords(groups []models.RelationshipKeyword) []string {
	var out []string
	for _, group := range groups {
		for _, item := range group.Items {
			if item.Type != models.RelationshipNot {
				continue
			}
			for _, kw := range item.Keywords {
				if kw.Keyword == "" {
					continue
				}
				out = append(out, strings.ToLower(kw.Keyword))
			}
		}
	}
	return out
}

// KeywordMatcher compiles an exact whole-word, case-insensitive matcher.
// "cat" matches "a cat sat" but not "category".
func KeywordMatcher(keyword string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(keyword) + `\b`)
}

// SearchableText is the lower-cased title and tag-stripped description joined
// by a space and trimmed.
func SearchableText(a models.EnrichedArticle) string {
	title := strings.ToLower(processing.ToSafeString(a.Title))
	description := strings.ToLower(processing.StripHTML(a.Description))
	return strings.TrimSpace(title + " " + description)
}

// hasContent reports whether the article carries any title or description
// text, markup included.
func hasContent(a models.EnrichedArticle) bool {
	return strings.TrimSpace(processing.ToSafeString(a.Title)+" "+processing.ToSafeString(a.Description)) != ""
}

// ExcludeNotKeywords drops articles without searchable text and articles that
// contain any NOT keyword as a whole word, tallying why each was dropped.
// Without NOT keywords the input is returned unchanged.
func ExcludeNotKeywords(articles []models.EnrichedArticle, groups []models.RelationshipKeyword) Result {
	stats := models.NewDiscardStats()

	keywords := NotKeywords(groups)
	if len(keywords) == 0 {
		return Result{Articles: articles, Stats: stats}
	}

	matchers := make([]matcher, 0, len(keywords))
	for _, kw := range keywords {
		matchers = append(matchers, matcher{keyword: kw, re: KeywordMatcher(kw)})
	}

	kept := make([]models.EnrichedArticle, 0, len(articles))
	for _, a := range articles {
		if !hasContent(a) {
			stats.TotalDiscarded++
			stats.DiscardedByNoContent++
			continue
		}

		text := SearchableText(a)

		var matched []string
		for _, m := range matchers {
			if m.re.MatchString(text) {
				matched = append(matched, m.keyword)
			}
		}
		if len(matched) == 0 {
			kept = append(kept, a)
			continue
		}

		stats.TotalDiscarded++
		stats.DiscardedByNotKeywords++
		for _, kw := range matched {
			stats.KeywordDiscardStats[kw]++
		}
	}

	return Result{Articles: kept, Stats: stats}
}
