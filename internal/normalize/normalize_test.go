package normalize

import (
	"reflect"
	"testing"
)

func TestQueryName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Solanum lycopersicum", "Solanum lycopersicum"},
		{"  Tomato\t\n", "Tomato"},
		{"Ocimum  basilicum", "Ocimum  basilicum"},
		{"   ", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := QueryName(tt.input); got != tt.expected {
				t.Errorf("QueryName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFold(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Jalapeño", "jalapeno"},
		{"Crème Brûlée", "creme brulee"},
		{"BASIL", "basil"},
		{"a\x00b", "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Fold(tt.input); got != tt.expected {
				t.Errorf("Fold(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSearchTerms(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"simple", "cherry tom", []string{"cherry", "tom"}},
		{"punctuation", "St. John's wort", []string{"st", "johns", "wort"}},
		{"extra whitespace", "  basil\t  genovese ", []string{"basil", "genovese"}},
		{"symbols only", "*** -- !!", []string{}},
		{"digits kept", "Zone 5b", []string{"zone", "5b"}},
		{"accents folded", "Jalapeño", []string{"jalapeno"}},
		{"empty", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SearchTerms(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("SearchTerms(%q) = %#v, want %#v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFilterValue(t *testing.T) {
	if got := FilterValue("  Herb "); got != "Herb" {
		t.Errorf("FilterValue = %q, want %q", got, "Herb")
	}
	if got := FilterValue(" \x00 "); got != "" {
		t.Errorf("FilterValue = %q, want empty", got)
	}
}
