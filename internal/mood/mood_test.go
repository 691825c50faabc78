package mood

import (
	"math"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		reading Reading
		want    Query
		wantOK  bool
	}{
		{
			name:    "nil reading",
			reading: nil,
			wantOK:  false,
		},
		{
			name:    "empty reading",
			reading: Reading{},
			wantOK:  false,
		},
		{
			name: "unique maximum",
			reading: Reading{
				Neutral: 0.1, Happy: 0.7, Sad: 0.05, Angry: 0.05,
				Fearful: 0.03, Disgusted: 0.02, Surprised: 0.05,
			},
			want:   "happy",
			wantOK: true,
		},
		{
			name:    "single entry",
			reading: Reading{Surprised: 0.4},
			want:    "surprised",
			wantOK:  true,
		},
		{
			name:    "tie goes to canonical order",
			reading: Reading{Sad: 0.4, Happy: 0.4, Angry: 0.2},
			want:    "happy",
			wantOK:  true,
		},
		{
			name:    "tie between last labels",
			reading: Reading{Surprised: 0.5, Disgusted: 0.5},
			want:    "disgusted",
			wantOK:  true,
		},
		{
			name:    "all zero picks first canonical label present",
			reading: Reading{Angry: 0, Fearful: 0},
			want:    "angry",
			wantOK:  true,
		},
		{
			name:    "unknown labels ignored",
			reading: Reading{"contempt": 0.99, Sad: 0.3},
			want:    "sad",
			wantOK:  true,
		},
		{
			name:    "only unknown labels",
			reading: Reading{"contempt": 0.99},
			wantOK:  false,
		},
		{
			name:    "non-finite scores ignored",
			reading: Reading{Neutral: math.NaN(), Happy: math.Inf(1), Sad: 0.2},
			want:    "sad",
			wantOK:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Resolve(tt.reading)
			if ok != tt.wantOK {
				t.Fatalf("Resolve() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolve_DeterministicOnTies(t *testing.T) {
	reading := Reading{
		Neutral: 0.25, Happy: 0.1, Sad: 0.25, Angry: 0.25, Fearful: 0.15,
	}

	first, ok := Resolve(reading)
	if !ok {
		t.Fatal("Resolve() returned no query")
	}
	for i := 0; i < 100; i++ {
		got, _ := Resolve(reading)
		if got != first {
			t.Fatalf("iteration %d: Resolve() = %q, want %q", i, got, first)
		}
	}
	if first != "neutral" {
		t.Errorf("Resolve() = %q, want neutral", first)
	}
}

func TestParseQuery(t *testing.T) {
	tests := []struct {
		input  string
		want   Query
		wantOK bool
	}{
		{"nostalgic but hopeful", "nostalgic but hopeful", true},
		{"  happy \n", "happy", true},
		{"", "", false},
		{"   \t\n ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseQuery(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseQuery(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseExpression(t *testing.T) {
	if e, ok := ParseExpression(" Happy "); !ok || e != Happy {
		t.Errorf("ParseExpression(\" Happy \") = (%q, %v), want (happy, true)", e, ok)
	}
	if _, ok := ParseExpression("nostalgic"); ok {
		t.Error("ParseExpression(\"nostalgic\") should not match")
	}

	q := Query("SAD")
	if e, ok := q.Expression(); !ok || e != Sad {
		t.Errorf("Query.Expression() = (%q, %v), want (sad, true)", e, ok)
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		expr Expression
		want string
	}{
		{Happy, "Upbeat & Joyful"},
		{Surprised, "Upbeat & Joyful"},
		{Angry, "Intense & Dark"},
		{Fearful, "Intense & Dark"},
		{Disgusted, "Intense & Dark"},
		{Neutral, "Calm & Content"},
		{Sad, "Reflective & Melancholy"},
		{Expression("bored"), ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.expr), func(t *testing.T) {
			if got := Describe(tt.expr); got != tt.want {
				t.Errorf("Describe(%q) = %q, want %q", tt.expr, got, tt.want)
			}
		})
	}
}

func TestGenerateMoodName_Boundaries(t *testing.T) {
	tests := []struct {
		name    string
		energy  float32
		valence float32
		want    string
	}{
		{"energy exactly 0.6 is low", 0.6, 0.7, "Calm & Content"},
		{"valence exactly 0.5 is low", 0.8, 0.5, "Intense & Dark"},
		{"both low", 0.1, 0.1, "Reflective & Melancholy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := generateMoodName(tt.energy, tt.valence); got != tt.want {
				t.Errorf("generateMoodName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetCategory(t *testing.T) {
	c, ok := GetCategory(Sad)
	if !ok {
		t.Fatal("GetCategory(sad) not found")
	}
	if c.Name != "Reflective & Melancholy" {
		t.Errorf("Name = %q, want Reflective & Melancholy", c.Name)
	}
	if c.Description == "" {
		t.Error("Description is empty")
	}

	if _, ok := GetCategory("bored"); ok {
		t.Error("GetCategory(bored) should not be found")
	}
}

func TestEveryExpressionHasProfile(t *testing.T) {
	for _, e := range Expressions {
		if Describe(e) == "" {
			t.Errorf("expression %q has no profile", e)
		}
	}
}
