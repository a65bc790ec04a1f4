package names

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase and suffix", "Arsenal FC", "arsenal"},
		{"punctuation", "St. Mirren F.C.", "st mirren"},
		{"whitespace collapse", "  Real   Madrid  CF ", "real madrid"},
		{"qualifier preserved", "Manchester City", "manchester city"},
		{"united preserved", "Manchester United FC", "manchester united"},
		{"town preserved", "Ipswich Town", "ipswich town"},
		{"all redundant falls back", "FC", "fc"},
		{"empty", "   ", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSimilarity_ExactAfterNormalize(t *testing.T) {
	if got := Similarity("Arsenal FC", "arsenal"); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
}

func TestSimilarity_Reflexive(t *testing.T) {
	for _, name := range []string{"Arsenal", "Manchester City", "Bayern München", "St. Pauli FC"} {
		if got := Similarity(name, name); got != 100 {
			t.Fatalf("Similarity(%q, %q) = %d, want 100", name, name, got)
		}
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"Arsenal", "Arsenal FC"},
		{"Manchester City", "Manchester United"},
		{"Wolves", "Wolverhampton Wanderers"},
		{"Borussia Dortmund", "Borussia Mönchengladbach"},
		{"Chelsea", "Everton"},
	}
	for _, pair := range pairs {
		ab := Similarity(pair[0], pair[1])
		ba := Similarity(pair[1], pair[0])
		if ab != ba {
			t.Fatalf("Similarity(%q, %q)=%d but reversed=%d", pair[0], pair[1], ab, ba)
		}
	}
}

func TestSimilarity_Containment(t *testing.T) {
	// "inter" inside "inter milan": round(5/11*90) = 41.
	if got := Similarity("Inter", "Inter Milan"); got != 41 {
		t.Fatalf("expected containment score 41, got %d", got)
	}
}

func TestSimilarity_TokenOverlap(t *testing.T) {
	// Normalized: "manchester city" vs "manchester united"; one of two
	// tokens matches on each side: round(2/4*80) = 40.
	if got := Similarity("Manchester City", "Manchester United"); got != 40 {
		t.Fatalf("expected token score 40, got %d", got)
	}
}

func TestSimilarity_Disjoint(t *testing.T) {
	if got := Similarity("Chelsea", "Liverpool"); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestSimilarity_QualifierDistinguishesClubs(t *testing.T) {
	same := Similarity("Manchester City", "Manchester City FC")
	cross := Similarity("Manchester City", "Manchester United")
	if same != 100 {
		t.Fatalf("suffix-only difference should score 100, got %d", same)
	}
	if cross >= same {
		t.Fatalf("different qualifiers must score lower: cross=%d same=%d", cross, same)
	}
}
