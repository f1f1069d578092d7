// Package rank scores feed items against a free-text query.
//
// The score of an item is
//
//	general + 2*hits + publishedMillis/1e12
//
// where general is 1 when the query reads like a generic request for news,
// hits counts the distinct query keywords found in the item's title,
// description and source, and the last term favours recent items without
// overtaking a keyword hit.
package rank

import (
	"regexp"
	"slices"
	"strings"

	"github.com/RobinCoderZhao/quicknews/internal/feeds"
)

const (
	// AskLimit is the number of results returned for a query.
	AskLimit = 6
	// ListLimit is the number of items in the plain listing.
	ListLimit = 20

	keywordWeight = 2.0
	generalBonus  = 1.0
	recencyScale  = 1e12
)

var generalIntent = regexp.MustCompile(`(?i)latest|today|top|headlines|news`)

// Query is a parsed free-text query.
type Query struct {
	Raw      string
	Keywords []string
	General  bool
}

// Parse lower-cases and whitespace-splits raw into keywords and detects
// generic news-seeking vocabulary anywhere in it.
func Parse(raw string) Query {
	return Query{
		Raw:      raw,
		Keywords: strings.Fields(strings.ToLower(strings.TrimSpace(raw))),
		General:  generalIntent.MatchString(raw),
	}
}

// Scored pairs an item with its score.
type Scored struct {
	Item  feeds.Item
	Score float64
}

// Score computes the relevance of it for q. A keyword counts once no matter
// how often it occurs.
func (q Query) Score(it feeds.Item) float64 {
	var score float64
	if q.General {
		score = generalBonus
	}
	hay := strings.ToLower(it.Title + " " + it.Description + " " + it.Source)
	for _, k := range q.Keywords {
		if strings.Contains(hay, k) {
			score += keywordWeight
		}
	}
	return score + float64(it.Millis())/recencyScale
}

// ScoreAll scores every item of corpus, highest first. Equal scores keep
// corpus order. corpus is not modified.
func ScoreAll(q Query, corpus []feeds.Item) []Scored {
	scored := make([]Scored, len(corpus))
	for i, it := range corpus {
		scored[i] = Scored{Item: it, Score: q.Score(it)}
	}
	slices.SortStableFunc(scored, func(a, b Scored) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	return scored
}

// Rank returns at most limit items of corpus ordered by relevance to query.
// A non-positive limit returns every item.
func Rank(query string, corpus []feeds.Item, limit int) []feeds.Item {
	scored := ScoreAll(Parse(query), corpus)
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	out := make([]feeds.Item, len(scored))
	for i, s := range scored {
		out[i] = s.Item
	}
	return out
}

// Top returns the first limit items of corpus unscored.
func Top(corpus []feeds.Item, limit int) []feeds.Item {
	n := len(corpus)
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]feeds.Item, n)
	copy(out, corpus)
	return out
}
