/*
Package factory turns configuration documents into engine objects.

PURPOSE:
  Exclusion calendars and engine thresholds are data, not code. Stewards
  edit a YAML or JSON document; the factory validates it and builds the
  exclusion.Calendar and violations.Config the engine runs with.

CALENDAR DOCUMENT (native):
  periods:
    - name: december 2024
      start: 2024-12-01
      end: 2024-12-31
      articles: [85F, 85F_NS, 85F_5th, MAX12, MAX60]

  Articles accept identifiers ("85F_NS") or citations ("8.5.F NS"). An
  omitted articles list means the penalty-overtime articles above.

CALENDAR DOCUMENT (legacy):
  {
    "2024": {"december_exclusion": {"start": "2024-12-01", "end": "2024-12-31"}},
    "2025": {"december_exclusion": {"start": "2025-11-29", "end": "2025-12-31"}}
  }

  Every legacy period suspends the penalty-overtime articles.

KEY FEATURES:
  - One parser for both formats (JSON is read as YAML)
  - Dates, articles and overlaps validated up front
  - Every problem is a generic.ConfigurationError

SEE ALSO:
  - exclusion/calendar.go: Calendar semantics
  - config.go: Engine configuration loading
*/
package factory

import (
	"fmt"
	"os"
	"sort"

	"github.com/warp/overtime-engine/exclusion"
	"github.com/warp/overtime-engine/generic"
	"gopkg.in/yaml.v3"
)

// PenaltyArticles is the default scope of an exclusion period: the rules
// suspended during the December penalty-overtime exclusion.
var PenaltyArticles = []generic.Article{
	generic.Article85F,
	generic.Article85FNS,
	generic.Article85F5th,
	generic.ArticleMax12,
	generic.ArticleMax60,
}

// =============================================================================
// DOCUMENT TYPES
// =============================================================================

// CalendarDocument is the native calendar document.
type CalendarDocument struct {
	Periods []PeriodDocument `json:"periods" yaml:"periods"`
}

// PeriodDocument is one exclusion period as written in a document.
type PeriodDocument struct {
	Name     string   `json:"name" yaml:"name"`
	Start    string   `json:"start" yaml:"start"`
	End      string   `json:"end" yaml:"end"`
	Articles []string `json:"articles,omitempty" yaml:"articles,omitempty"`
}

type legacyYear struct {
	DecemberExclusion *struct {
		Start string `yaml:"start"`
		End   string `yaml:"end"`
	} `yaml:"december_exclusion"`
}

// =============================================================================
// CALENDAR FACTORY
// =============================================================================

// ParseCalendar parses a native or legacy calendar document.
func ParseCalendar(data []byte) (*exclusion.Calendar, error) {
	doc, err := ParseCalendarDocument(data)
	if err != nil {
		return nil, err
	}
	return doc.Calendar()
}

// LoadCalendarFile reads and parses a calendar document from disk.
func LoadCalendarFile(path string) (*exclusion.Calendar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read exclusion calendar: %w", err)
	}
	return ParseCalendar(data)
}

// ParseCalendarDocument decodes either format into a CalendarDocument
// without validating it.
func ParseCalendarDocument(data []byte) (CalendarDocument, error) {
	var probe map[string]yaml.Node
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return CalendarDocument{}, &generic.ConfigurationError{Field: "exclusions", Message: err.Error()}
	}
	if _, native := probe["periods"]; native || len(probe) == 0 {
		var doc CalendarDocument
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return CalendarDocument{}, &generic.ConfigurationError{Field: "exclusions", Message: err.Error()}
		}
		return doc, nil
	}
	return parseLegacy(data)
}

func parseLegacy(data []byte) (CalendarDocument, error) {
	var years map[string]legacyYear
	if err := yaml.Unmarshal(data, &years); err != nil {
		return CalendarDocument{}, &generic.ConfigurationError{Field: "exclusions", Message: fmt.Sprintf("legacy format: %v", err)}
	}

	keys := make([]string, 0, len(years))
	for y := range years {
		keys = append(keys, y)
	}
	sort.Strings(keys)

	var doc CalendarDocument
	for _, y := range keys {
		dec := years[y].DecemberExclusion
		if dec == nil {
			continue
		}
		doc.Periods = append(doc.Periods, PeriodDocument{
			Name:  "december exclusion " + y,
			Start: dec.Start,
			End:   dec.End,
		})
	}
	return doc, nil
}

// Calendar validates the document and builds the calendar.
func (d CalendarDocument) Calendar() (*exclusion.Calendar, error) {
	periods := make([]exclusion.Period, 0, len(d.Periods))
	for i, pd := range d.Periods {
		p, err := pd.period()
		if err != nil {
			return nil, &generic.ConfigurationError{Field: fmt.Sprintf("exclusions[%d]", i), Message: err.Error()}
		}
		periods = append(periods, p)
	}
	return exclusion.NewCalendar(periods)
}

func (pd PeriodDocument) period() (exclusion.Period, error) {
	start, err := generic.ParseDate(pd.Start)
	if err != nil {
		return exclusion.Period{}, fmt.Errorf("start: %w", err)
	}
	end, err := generic.ParseDate(pd.End)
	if err != nil {
		return exclusion.Period{}, fmt.Errorf("end: %w", err)
	}

	articles := make([]generic.Article, 0, len(pd.Articles))
	for _, s := range pd.Articles {
		a, err := generic.ParseArticle(s)
		if err != nil {
			return exclusion.Period{}, err
		}
		articles = append(articles, a)
	}
	if len(articles) == 0 {
		articles = append(articles, PenaltyArticles...)
	}
	return exclusion.Period{Name: pd.Name, Start: start, End: end, Articles: articles}, nil
}

// DocumentOf converts a calendar back to its native document.
func DocumentOf(c *exclusion.Calendar) CalendarDocument {
	doc := CalendarDocument{Periods: []PeriodDocument{}}
	for _, p := range c.Periods() {
		pd := PeriodDocument{Name: p.Name, Start: p.Start.String(), End: p.End.String()}
		for _, a := range p.Articles {
			pd.Articles = append(pd.Articles, string(a))
		}
		doc.Periods = append(doc.Periods, pd)
	}
	return doc
}
