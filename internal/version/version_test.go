package version

import "testing"

func TestCompare(t *testing.T) {
	tests := []struct {
		name        string
		installed   string
		candidate   string
		wantNewer   bool
		wantMajor   bool
		wantDegrade bool
	}{
		{
			name:      "patch bump",
			installed: "1.0.0",
			candidate: "1.0.1",
			wantNewer: true,
		},
		{
			name:      "minor bump",
			installed: "1.2.0",
			candidate: "1.3.0",
			wantNewer: true,
		},
		{
			name:      "major bump",
			installed: "1.9.9",
			candidate: "2.0.0",
			wantNewer: true,
			wantMajor: true,
		},
		{
			name:      "equal",
			installed: "1.2.3",
			candidate: "1.2.3",
		},
		{
			name:      "downgrade",
			installed: "2.0.0",
			candidate: "1.9.9",
		},
		{
			name:      "missing components default to zero",
			installed: "1.2",
			candidate: "1.2.0",
		},
		{
			name:      "short candidate is newer",
			installed: "1.2.3",
			candidate: "2",
			wantNewer: true,
			wantMajor: true,
		},
		{
			name:        "malformed installed, differing strings",
			installed:   "abc",
			candidate:   "1.0.0",
			wantNewer:   true,
			wantDegrade: true,
		},
		{
			name:        "malformed candidate, differing strings",
			installed:   "1.0.0",
			candidate:   "1.0.0-beta",
			wantNewer:   true,
			wantDegrade: true,
		},
		{
			name:        "both malformed but identical",
			installed:   "v1?",
			candidate:   "v1?",
			wantNewer:   false,
			wantDegrade: true,
		},
		{
			name:        "empty installed",
			installed:   "",
			candidate:   "1.0.0",
			wantNewer:   true,
			wantDegrade: true,
		},
		{
			name:        "negative component",
			installed:   "1.-1.0",
			candidate:   "1.0.0",
			wantNewer:   true,
			wantDegrade: true,
		},
		{
			name:        "too many components",
			installed:   "1.2.3.4",
			candidate:   "1.2.3",
			wantNewer:   true,
			wantDegrade: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compare(tt.installed, tt.candidate)

			if got.IsNewer != tt.wantNewer {
				t.Errorf("IsNewer = %v, want %v", got.IsNewer, tt.wantNewer)
			}
			if got.IsMajorBump != tt.wantMajor {
				t.Errorf("IsMajorBump = %v, want %v", got.IsMajorBump, tt.wantMajor)
			}
			degraded := got.MalformedInstalled || got.MalformedCandidate
			if degraded != tt.wantDegrade {
				t.Errorf("degraded = %v, want %v", degraded, tt.wantDegrade)
			}
			if degraded && len(got.Warnings) == 0 {
				t.Error("degraded comparison produced no warnings")
			}
		})
	}
}

func TestCompareDeterministic(t *testing.T) {
	a := Compare("1.0.0", "2.0.0")
	b := Compare("1.0.0", "2.0.0")
	if a.IsNewer != b.IsNewer || a.IsMajorBump != b.IsMajorBump {
		t.Error("Compare() not deterministic for identical inputs")
	}
}
