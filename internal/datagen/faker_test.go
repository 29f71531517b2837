//-------------------------------------------------------------------------
//
// mallflow
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"testing"
)

func TestNewFaker(t *testing.T) {
	f := NewFaker()
	if f == nil {
		t.Fatal("NewFaker returned nil")
	}
	if f.faker == nil {
		t.Fatal("faker field is nil")
	}
}

func TestNewFakerWithSeed(t *testing.T) {
	seed := uint64(12345)
	f1 := NewFakerWithSeed(seed)
	f2 := NewFakerWithSeed(seed)

	// Same seed should produce same sequence
	for i := 0; i < 10; i++ {
		v1 := f1.Int(0, 1000)
		v2 := f2.Int(0, 1000)
		if v1 != v2 {
			t.Errorf("Same seed produced different values: %d != %d", v1, v2)
		}
	}
	if f1.City() != f2.City() {
		t.Error("Same seed produced different cities")
	}
}

func TestFakerStrings(t *testing.T) {
	f := NewFakerWithSeed(1)
	if f.City() == "" {
		t.Error("City returned empty string")
	}
	if f.Company() == "" {
		t.Error("Company returned empty string")
	}
	if code := f.CountryCode(); len(code) != 2 {
		t.Errorf("CountryCode returned %q", code)
	}
}

func TestFakerRanges(t *testing.T) {
	f := NewFaker()
	for i := 0; i < 100; i++ {
		if v := f.Int(5, 10); v < 5 || v > 10 {
			t.Errorf("Int out of range: %d", v)
		}
		if v := f.Float64(1.5, 2.5); v < 1.5 || v > 2.5 {
			t.Errorf("Float64 out of range: %f", v)
		}
	}
}

func TestFakerChance(t *testing.T) {
	f := NewFakerWithSeed(7)
	for i := 0; i < 100; i++ {
		if f.Chance(0) {
			t.Fatal("Chance(0) returned true")
		}
		if !f.Chance(1) {
			t.Fatal("Chance(1) returned false")
		}
	}
}

func TestNullable(t *testing.T) {
	f := NewFakerWithSeed(7)
	if got := f.Nullable("x", 0); got != "x" {
		t.Errorf("Nullable with 0 probability returned %q", got)
	}
	if got := f.Nullable("x", 1); got != "NA" {
		t.Errorf("Nullable with 1 probability returned %q", got)
	}
}

func TestChoose(t *testing.T) {
	f := NewFaker()
	items := []string{"a", "b", "c"}

	for i := 0; i < 100; i++ {
		result := Choose(f, items)
		found := false
		for _, item := range items {
			if result == item {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Choose returned unexpected value: %s", result)
		}
	}

	if got := Choose(f, []string{}); got != "" {
		t.Errorf("Choose on empty slice returned %q", got)
	}
}

func TestChooseWeighted(t *testing.T) {
	f := NewFakerWithSeed(3)
	items := []string{"never", "always"}
	weights := []int{0, 10}

	for i := 0; i < 100; i++ {
		if got := ChooseWeighted(f, items, weights); got != "always" {
			t.Fatalf("ChooseWeighted returned zero-weight item %q", got)
		}
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		v        float64
		decimals int
		want     string
	}{
		{1.5, 2, "1.50"},
		{1234.5678, 1, "1234.6"},
		{3, 0, "3"},
	}
	for _, tt := range tests {
		if got := FormatFloat(tt.v, tt.decimals); got != tt.want {
			t.Errorf("FormatFloat(%v, %d) = %q, want %q", tt.v, tt.decimals, got, tt.want)
		}
	}
}

func TestGLACategory(t *testing.T) {
	tests := []struct {
		gla  float64
		want string
	}{
		{50, "S"},
		{100, "M"},
		{1499.9, "L"},
		{4000, "XL"},
	}
	for _, tt := range tests {
		if got := glaCategory(tt.gla); got != tt.want {
			t.Errorf("glaCategory(%v) = %q, want %q", tt.gla, got, tt.want)
		}
	}
}
