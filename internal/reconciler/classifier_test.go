package reconciler

import "testing"

func TestClassify(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name        string
		productName string
		want        string
	}{
		{name: "category A keyword", productName: "Fresh Cucumber 500g", want: "A"},
		{name: "category B keyword", productName: "Iceberg Lettuce Head", want: "B"},
		{name: "no keyword defaults to A", productName: "Mystery Vegetable", want: "A"},
		{name: "case insensitive", productName: "BATAVIA Premium", want: "B"},
		{name: "word boundary: lettuces plural does not match lettuce", productName: "Lettuces Pack", want: "A"},
		{name: "keyword inside another word ignored", productName: "Batavian Style Salad", want: "A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.productName); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.productName, got, tt.want)
			}
		})
	}
}

func TestClassifyChecksSecondaryListFirst(t *testing.T) {
	// "cherry tomato" (B) also contains "tomato" (A); checking the B list
	// first must win.
	c := NewClassifierWithKeywords(
		[]string{"tomato"},
		[]string{"cherry tomato"},
	)

	if got := c.Classify("Cherry Tomato Pack 500g"); got != "B" {
		t.Errorf("Classify = %q, want B (secondary list checked first)", got)
	}
}
