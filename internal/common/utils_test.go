package common

import "testing"

func TestHasAny(t *testing.T) {
	cases := []struct {
		s    string
		subs []string
		want bool
	}{
		{"Light snow showers", []string{"snow", "sleet"}, true},
		{"Patchy SLEET possible", []string{"snow", "sleet"}, true},
		{"Heavy rain", []string{"snow", "sleet", "blizzard"}, false},
		{"", []string{"snow"}, false},
	}
	for _, tc := range cases {
		if got := HasAny(tc.s, tc.subs...); got != tc.want {
			t.Errorf("HasAny(%q, %v): want %v, got %v", tc.s, tc.subs, tc.want, got)
		}
	}
}

func TestRound1(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{7.25, 7.3},
		{7.24, 7.2},
		{-2.34, -2.3},
		{10, 10},
	}
	for _, tc := range cases {
		if got := Round1(tc.in); got != tc.want {
			t.Errorf("Round1(%v): want %v, got %v", tc.in, tc.want, got)
		}
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(12, 1, 10); got != 10 {
		t.Fatalf("clamp above: want 10, got %v", got)
	}
	if got := Clamp(-3, 1, 10); got != 1 {
		t.Fatalf("clamp below: want 1, got %v", got)
	}
	if got := Clamp(5.5, 1, 10); got != 5.5 {
		t.Fatalf("inside range: want 5.5, got %v", got)
	}
}
