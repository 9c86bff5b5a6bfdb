package models

import (
	"testing"
)

func TestMergeActions(t *testing.T) {
	tests := []struct {
		name     string
		previous []ActionItem
		next     []ActionItem
		expected []ActionItem
	}{
		{
			name: "Unchanged text keeps completed flag",
			previous: []ActionItem{
				{Text: "Interview users", Completed: true},
				{Text: "Run survey", Completed: false},
			},
			next: []ActionItem{
				{Text: "Interview users"},
				{Text: "Run survey"},
			},
			expected: []ActionItem{
				{Text: "Interview users", Completed: true},
				{Text: "Run survey", Completed: false},
			},
		},
		{
			name: "New action arrives unchecked",
			previous: []ActionItem{
				{Text: "Interview users", Completed: true},
			},
			next: []ActionItem{
				{Text: "Interview users"},
				{Text: "Check regulations"},
			},
			expected: []ActionItem{
				{Text: "Interview users", Completed: true},
				{Text: "Check regulations", Completed: false},
			},
		},
		{
			name: "Changed text loses completed flag",
			previous: []ActionItem{
				{Text: "Interview users", Completed: true},
			},
			next: []ActionItem{
				{Text: "Interview twenty users"},
			},
			expected: []ActionItem{
				{Text: "Interview twenty users", Completed: false},
			},
		},
		{
			name:     "Empty previous",
			previous: nil,
			next:     []ActionItem{{Text: "Start"}},
			expected: []ActionItem{{Text: "Start", Completed: false}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged := MergeActions(tt.previous, tt.next)
			if len(merged) != len(tt.expected) {
				t.Fatalf("Expected %d actions, got %d", len(tt.expected), len(merged))
			}
			for i, want := range tt.expected {
				if merged[i] != want {
					t.Errorf("Action %d: expected %+v, got %+v", i, want, merged[i])
				}
			}
		})
	}
}

func TestReportStatusIsTerminal(t *testing.T) {
	tests := []struct {
		status   ReportStatus
		terminal bool
	}{
		{ReportQueued, false},
		{ReportRunning, false},
		{ReportSucceeded, true},
		{ReportFailed, true},
	}

	for _, tt := range tests {
		if got := tt.status.IsTerminal(); got != tt.terminal {
			t.Errorf("IsTerminal(%s) = %v, expected %v", tt.status, got, tt.terminal)
		}
	}
}

func TestMergeOverviewReplacementSemantics(t *testing.T) {
	prev := &ProductOverview{
		RefinedPitch:   "Old pitch",
		ProblemSummary: "Old problem",
		Solution:       "Old solution",
		CoreFeatures:   []string{"feature A"},
		Personas:       []Persona{{Name: "Courier", Summary: "delivers things"}},
	}
	next := &ProductOverview{
		RefinedPitch: "New pitch",
		CoreFeatures: []string{"feature B", "feature C"},
	}

	merged := MergeOverview(prev, next)

	if merged.RefinedPitch != "New pitch" {
		t.Errorf("Populated field should win: got %q", merged.RefinedPitch)
	}
	if merged.ProblemSummary != "Old problem" {
		t.Errorf("Omitted field should keep prior value: got %q", merged.ProblemSummary)
	}
	if merged.Solution != "Old solution" {
		t.Errorf("Omitted field should keep prior value: got %q", merged.Solution)
	}
	if len(merged.CoreFeatures) != 2 || merged.CoreFeatures[0] != "feature B" {
		t.Errorf("Populated slice should replace: got %v", merged.CoreFeatures)
	}
	if len(merged.Personas) != 1 || merged.Personas[0].Name != "Courier" {
		t.Errorf("Omitted slice should keep prior value: got %v", merged.Personas)
	}
}

func TestMergeOverviewDoesNotMutateInputs(t *testing.T) {
	prev := &ProductOverview{RefinedPitch: "Old", CoreFeatures: []string{"a"}}
	next := &ProductOverview{ProblemSummary: "New problem"}

	merged := MergeOverview(prev, next)
	merged.CoreFeatures[0] = "mutated"
	merged.RefinedPitch = "mutated"

	if prev.CoreFeatures[0] != "a" || prev.RefinedPitch != "Old" {
		t.Error("Merge mutated the previous overview")
	}
	if next.ProblemSummary != "New problem" {
		t.Error("Merge mutated the next overview")
	}
}

func TestMergeOverviewNilPrevious(t *testing.T) {
	next := &ProductOverview{RefinedPitch: "Fresh"}
	merged := MergeOverview(nil, next)
	if merged.RefinedPitch != "Fresh" {
		t.Errorf("Expected fresh overview, got %q", merged.RefinedPitch)
	}
}

func TestCloneIsDeep(t *testing.T) {
	original := &ProductOverview{
		Personas:     []Persona{{Name: "Courier", Needs: []string{"speed"}}},
		CoreFeatures: []string{"routing"},
	}

	clone := original.Clone()
	clone.Personas[0].Name = "Changed"
	clone.Personas[0].Needs[0] = "changed"
	clone.CoreFeatures[0] = "changed"

	if original.Personas[0].Name != "Courier" || original.Personas[0].Needs[0] != "speed" {
		t.Error("Clone shares persona memory with the original")
	}
	if original.CoreFeatures[0] != "routing" {
		t.Error("Clone shares feature memory with the original")
	}
}

func TestEstimatedImpact(t *testing.T) {
	tests := []struct {
		score    float64
		expected int
	}{
		{0, 85},
		{35, 50},
		{50, 35},
		{84, 1},
		{85, 1},
		{100, 1},
		{69.6, 15},
	}

	for _, tt := range tests {
		if got := EstimatedImpact(tt.score); got != tt.expected {
			t.Errorf("EstimatedImpact(%v) = %d, expected %d", tt.score, got, tt.expected)
		}
	}
}
