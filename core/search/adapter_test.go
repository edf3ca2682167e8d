package search_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/goto/scout/core/search"
)

func TestAdapterValidate(t *testing.T) {
	type testCase struct {
		Description string
		Adapter     *search.Adapter
		WantErr     bool
	}
	var testCases = []testCase{
		{
			Description: "a doc type and at least one field are enough",
			Adapter:     &search.Adapter{DocType: "dataset", Fields: []string{"title"}},
		},
		{
			Description: "a missing doc type is rejected",
			Adapter:     &search.Adapter{Fields: []string{"title"}},
			WantErr:     true,
		},
		{
			Description: "an empty field list is rejected",
			Adapter:     &search.Adapter{DocType: "dataset"},
			WantErr:     true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.Description, func(t *testing.T) {
			err := tc.Adapter.Validate()
			if tc.WantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCompleterTokenize(t *testing.T) {
	type testCase struct {
		Description string
		Value       string
		Expected    []string
	}
	var testCases = []testCase{
		{
			Description: "a single word yields itself",
			Value:       "test",
			Expected:    []string{"test"},
		},
		{
			Description: "a phrase yields itself and its words",
			Value:       "test square",
			Expected:    []string{"test square", "test", "square", "test square"},
		},
		{
			Description: "apostrophes split words",
			Value:       "test's square",
			Expected:    []string{"test's square", "test", "square", "test square"},
		},
		{
			Description: "short apostrophe fragments are dropped",
			Value:       "test l'apostrophe",
			Expected:    []string{"test l'apostrophe", "test", "apostrophe", "test apostrophe"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.Description, func(t *testing.T) {
			assert.ElementsMatch(t, dedupe(tc.Expected), search.CompleterTokenize(tc.Value))
		})
	}
}

func dedupe(values []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, value := range values {
		if !seen[value] {
			seen[value] = true
			out = append(out, value)
		}
	}
	return out
}
