package formulary

import "testing"

func TestNormalizeDrugName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"upper case", "PARACETAMOL", "paracetamol"},
		{"accents folded", "Paracétamol", "paracetamol"},
		{"punctuation stripped", "Amoxil® (Amoxicillin)", "amoxil amoxicillin"},
		{"whitespace collapsed", "  co   trimoxazole  ", "co trimoxazole"},
		{"plus and hyphen kept", "amoxicillin+clavulanate co-amoxiclav", "amoxicillin+clavulanate co-amoxiclav"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDrugName(tt.input); got != tt.expected {
				t.Errorf("NormalizeDrugName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNamesMatch(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected bool
	}{
		{"exact", "Paracetamol", "paracetamol", true},
		{"strength suffix", "Amoxicillin 500mg", "Amoxicillin", true},
		{"substring either way", "Ibuprofen", "IBUPROFEN TABLETS", true},
		{"different drugs", "Paracetamol", "Ibuprofen", false},
		{"accented vs plain", "Paracétamol", "Paracetamol", true},
		{"empty never matches", "", "Paracetamol", false},
		{"both empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NamesMatch(tt.a, tt.b); got != tt.expected {
				t.Errorf("NamesMatch(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestCanonicalDrugName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain heading", "Amoxicillin", "AMOXICILLIN"},
		{"parenthetical removed", "AMOXICILLIN (Amoxil)", "AMOXICILLIN"},
		{"classification token removed", "Rx AMOXICILLIN", "AMOXICILLIN"},
		{"otc token removed", "PARACETAMOL OTC", "PARACETAMOL"},
		{"trailing punctuation", "IBUPROFEN.", "IBUPROFEN"},
		{"multi word", "co-amoxiclav suspension", "CO-AMOXICLAV SUSPENSION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanonicalDrugName(tt.input); got != tt.expected {
				t.Errorf("CanonicalDrugName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestMatchSectionHeading(t *testing.T) {
	tests := []struct {
		name        string
		line        string
		expectedKey string
		expectedOK  bool
	}{
		{"indications with colon", "Indications: bacterial infections", "indications", true},
		{"uses alias", "Uses - pain and fever", "indications", true},
		{"side effects alias", "Side Effects", "adverseReactions", true},
		{"undesirable effects alias", "Undesirable Effects: nausea", "adverseReactions", true},
		{"dosage and administration wins over dosage", "Dosage and Administration: 500 mg", "dosage", true},
		{"dose adjustment not dosage", "Dose adjustment in renal impairment", "doseAdjustment", true},
		{"word boundary", "Doses of up to 4 g have been used", "", false},
		{"not a heading", "Take with food.", "", false},
		{"empty line", "   ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, _, ok := matchSectionHeading(tt.line)
			if ok != tt.expectedOK {
				t.Fatalf("matchSectionHeading(%q) ok = %v, want %v", tt.line, ok, tt.expectedOK)
			}
			if ok && string(key) != tt.expectedKey {
				t.Errorf("matchSectionHeading(%q) key = %q, want %q", tt.line, key, tt.expectedKey)
			}
		})
	}
}
