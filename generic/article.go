package generic

import (
	"fmt"
	"strings"
)

// Article identifies a contract rule the engine evaluates.
type Article string

const (
	Article85D    Article = "85D"
	Article85F    Article = "85F"
	Article85FNS  Article = "85F_NS"
	Article85F5th Article = "85F_5th"
	Article85G    Article = "85G"
	ArticleMax12  Article = "MAX12"
	ArticleMax60  Article = "MAX60"
)

// Articles lists every article in evaluation order. Ledgers sort by this
// order within a carrier-day.
var Articles = []Article{
	Article85D,
	Article85F,
	Article85FNS,
	Article85F5th,
	Article85G,
	ArticleMax12,
	ArticleMax60,
}

// Rank returns the article's position in Articles, or -1.
func (a Article) Rank() int {
	for i, known := range Articles {
		if known == a {
			return i
		}
	}
	return -1
}

func (a Article) Valid() bool { return a.Rank() >= 0 }

// Label returns the contract citation, e.g. "8.5.F NS".
func (a Article) Label() string {
	switch a {
	case Article85D:
		return "8.5.D"
	case Article85F:
		return "8.5.F"
	case Article85FNS:
		return "8.5.F NS"
	case Article85F5th:
		return "8.5.F 5th"
	case Article85G:
		return "8.5.G"
	}
	return string(a)
}

// ParseArticle accepts the identifier ("85F_NS"), the citation ("8.5.F NS")
// and loose variants of either ("85f ns", "8.5.f-5th").
func ParseArticle(s string) (Article, error) {
	key := strings.ToLower(s)
	key = strings.NewReplacer(".", "", " ", "", "_", "", "-", "").Replace(key)
	for _, a := range Articles {
		known := strings.ToLower(strings.ReplaceAll(string(a), "_", ""))
		if key == known {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown article %q", s)
}
