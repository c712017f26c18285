package reconciler

import (
	"regexp"
	"strings"
)

// Default keyword lists for the two produce categories.
var (
	defaultCategoryA = []string{
		"cucumber", "tomato", "cherry tomato", "capsicum", "pepper",
		"arugula", "parsley", "coriander", "mint", "kale", "basil",
	}
	defaultCategoryB = []string{
		"lettuce", "chives", "batavia",
	}
)

// Classifier assigns a category to a product name based on keyword lists.
// The secondary list (category B) is checked before the primary one: B
// keywords tend to be more specific, and the check order is the tie-break.
type Classifier struct {
	categoryA []*regexp.Regexp
	categoryB []*regexp.Regexp
}

// NewClassifier creates a Classifier with the default keyword lists.
func NewClassifier() *Classifier {
	return NewClassifierWithKeywords(defaultCategoryA, defaultCategoryB)
}

// NewClassifierWithKeywords creates a Classifier with custom keyword lists
// for categories A and B. Keywords are matched on word boundaries,
// case-insensitively.
func NewClassifierWithKeywords(categoryA, categoryB []string) *Classifier {
	return &Classifier{
		categoryA: compileKeywords(categoryA),
		categoryB: compileKeywords(categoryB),
	}
}

// Classify returns "B" if a category-B keyword appears in the name, then "A"
// if a category-A keyword does, and defaults to "A".
func (c *Classifier) Classify(productName string) string {
	name := strings.ToLower(productName)

	for _, re := range c.categoryB {
		if re.MatchString(name) {
			return "B"
		}
	}
	for _, re := range c.categoryA {
		if re.MatchString(name) {
			return "A"
		}
	}
	return "A"
}

func compileKeywords(keywords []string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		res = append(res, regexp.MustCompile(`\b`+regexp.QuoteMeta(k)+`\b`))
	}
	return res
}
