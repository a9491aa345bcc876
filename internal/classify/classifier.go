// Package classify analyzes user queries before retrieval. It extracts
// brand and category mentions, detects personalization requests, and
// parses explicit spending statements like "스타벅스에서 5만원 썼어".
package classify

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Spending is an explicit spend amount tied to a brand in the query.
type Spending struct {
	Amount   float64
	Category string
}

// Result is the classification of a single query.
type Result struct {
	// Brands are canonical brand names found in the query, sorted.
	Brands []string

	// Categories are canonical category names found in the query, sorted.
	Categories []string

	// Personalized reports that the query asks for recommendations
	// based on the user's own spending history.
	Personalized bool

	// Spending maps canonical brand names to explicit spend statements.
	Spending map[string]Spending

	// HasBenefitKeyword reports that the query mentions a benefit term.
	HasBenefitKeyword bool

	// BenefitType is the benefit kind the query asks for, when one of
	// the type keywords appears. Empty means no preference.
	BenefitType string
}

// Classifier extracts structured intent from free-text queries.
type Classifier struct {
	dict Dictionaries

	personalization []*regexp.Regexp
	general         []*regexp.Regexp
	spending        []spendingPattern
	hangulBrand     *regexp.Regexp
	latinBrand      *regexp.Regexp
	upperBrand      *regexp.Regexp
	stopwords       map[string]struct{}
}

type spendingPattern struct {
	re   *regexp.Regexp
	mult float64
}

// NewClassifier compiles a classifier over the given dictionaries.
func NewClassifier(dict Dictionaries) (*Classifier, error) {
	c := &Classifier{
		dict:        dict,
		hangulBrand: regexp.MustCompile(`^[가-힣]{2,6}$`),
		latinBrand:  regexp.MustCompile(`^[A-Z][a-zA-Z]{2,11}$`),
		upperBrand:  regexp.MustCompile(`^[A-Z]{2,8}$`),
		stopwords:   make(map[string]struct{}, len(dict.Stopwords)),
	}

	for _, p := range dict.PersonalizationPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile personalization pattern %q: %w", p, err)
		}
		c.personalization = append(c.personalization, re)
	}

	for _, p := range dict.GeneralPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile general pattern %q: %w", p, err)
		}
		c.general = append(c.general, re)
	}

	// Suffix-attached amounts: "스타벅스에서 5만원" and "스타벅스 5만원".
	for _, sp := range []struct {
		pattern string
		mult    float64
	}{
		{`(\S+)에서\s*(\d+)\s*만원`, 10000},
		{`(\S+)에서\s*(\d+)\s*천원`, 1000},
		{`(\S+)에서\s*(\d+)\s*원`, 1},
		{`(\S+)\s*(\d+)\s*만원`, 10000},
		{`(\S+)\s*(\d+)\s*천원`, 1000},
		{`(\S+)\s*(\d+)\s*원`, 1},
	} {
		c.spending = append(c.spending, spendingPattern{
			re:   regexp.MustCompile(sp.pattern),
			mult: sp.mult,
		})
	}

	for _, w := range dict.Stopwords {
		c.stopwords[w] = struct{}{}
	}

	return c, nil
}

// Classify analyzes a query. It never fails; an unparseable query yields
// an empty result that downstream retrieval treats as a broad search.
func (c *Classifier) Classify(query string) Result {
	res := Result{
		Spending: make(map[string]Spending),
	}

	lower := strings.ToLower(query)

	res.Brands = c.extractBrands(query, lower)
	res.Categories = c.extractCategories(lower)
	res.Spending = c.extractSpending(query)
	res.HasBenefitKeyword = c.hasBenefitKeyword(lower)
	res.BenefitType = c.benefitType(lower)
	res.Personalized = c.isPersonalized(query, res.Brands)

	return res
}

// BrandCategory returns the canonical category for a known brand.
func (c *Classifier) BrandCategory(brand string) (string, bool) {
	for _, e := range c.dict.Brands {
		if e.Name == brand {
			return e.Category, true
		}
	}
	return "", false
}

func (c *Classifier) extractBrands(query, lower string) []string {
	found := make(map[string]struct{})

	for _, e := range c.dict.Brands {
		for _, alias := range e.Aliases {
			if strings.Contains(lower, strings.ToLower(alias)) {
				found[e.Name] = struct{}{}
				break
			}
		}
	}

	// Heuristic extraction only when no known brand matched. Candidate
	// words look like brand names and are not common vocabulary or
	// category keywords.
	if len(found) == 0 {
		for _, word := range strings.Fields(query) {
			if !c.looksLikeBrand(word) {
				continue
			}
			if _, stop := c.stopwords[word]; stop {
				continue
			}
			if c.isCategoryKeyword(strings.ToLower(word)) {
				continue
			}
			found[word] = struct{}{}
		}
	}

	return sortedSet(found)
}

func (c *Classifier) looksLikeBrand(word string) bool {
	return c.hangulBrand.MatchString(word) ||
		c.latinBrand.MatchString(word) ||
		c.upperBrand.MatchString(word)
}

func (c *Classifier) isCategoryKeyword(word string) bool {
	for _, keywords := range c.dict.CategoryKeywords {
		for _, kw := range keywords {
			if word == strings.ToLower(kw) {
				return true
			}
		}
	}
	return false
}

func (c *Classifier) extractCategories(lower string) []string {
	found := make(map[string]struct{})

	for category, keywords := range c.dict.CategoryKeywords {
		for _, kw := range keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				found[category] = struct{}{}
				break
			}
		}
	}

	return sortedSet(found)
}

func (c *Classifier) extractSpending(query string) map[string]Spending {
	out := make(map[string]Spending)

	for _, sp := range c.spending {
		for _, m := range sp.re.FindAllStringSubmatch(query, -1) {
			entry, ok := c.normalizeBrand(m[1])
			if !ok {
				continue
			}
			if _, seen := out[entry.Name]; seen {
				continue
			}
			amount, err := strconv.Atoi(m[2])
			if err != nil {
				continue
			}
			out[entry.Name] = Spending{
				Amount:   float64(amount) * sp.mult,
				Category: entry.Category,
			}
		}
	}

	return out
}

// normalizeBrand resolves raw query text to a canonical brand.
// Exact alias matches win over substring matches.
func (c *Classifier) normalizeBrand(text string) (BrandEntry, bool) {
	lower := strings.ToLower(strings.TrimSpace(text))

	for _, e := range c.dict.Brands {
		for _, alias := range e.Aliases {
			if lower == strings.ToLower(alias) {
				return e, true
			}
		}
	}

	for _, e := range c.dict.Brands {
		for _, alias := range e.Aliases {
			la := strings.ToLower(alias)
			if strings.Contains(lower, la) || strings.Contains(la, lower) {
				return e, true
			}
		}
	}

	return BrandEntry{}, false
}

func (c *Classifier) hasBenefitKeyword(lower string) bool {
	for _, kw := range c.dict.BenefitKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func (c *Classifier) benefitType(lower string) string {
	for _, entry := range c.dict.BenefitTypeKeywords {
		for _, kw := range entry.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				return entry.Type
			}
		}
	}
	return ""
}

func (c *Classifier) isPersonalized(query string, brands []string) bool {
	for _, re := range c.personalization {
		if re.MatchString(query) {
			return true
		}
	}

	// Broad recommendation requests without a named brand count as
	// personalization requests.
	if len(brands) == 0 {
		for _, re := range c.general {
			if re.MatchString(query) {
				return true
			}
		}
	}

	return false
}

func sortedSet(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
