package site

import (
	"strings"
	"testing"

	"github.com/yanizio/sitecraft/internal/content"
)

func TestMakeSlug(t *testing.T) {
	cases := map[string]string{
		"Blue Oak Café":          "blue-oak-cafe",
		"  Joe's   Diner!! ":     "joe-s-diner",
		"Food & Beverage":        "food-beverage",
		"🍕🍕":                     "site",
		"":                       "site",
		"Crème Brûlée Bistro 24": "creme-brulee-bistro-24",
	}
	for in, want := range cases {
		if got := MakeSlug(in); got != want {
			t.Errorf("MakeSlug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMakeSlugCapsLength(t *testing.T) {
	got := MakeSlug(strings.Repeat("ab ", 80))
	if len(got) > maxSlugLen {
		t.Fatalf("len = %d", len(got))
	}
	if strings.HasSuffix(got, "-") {
		t.Fatalf("trailing dash: %q", got)
	}
}

func TestNewRecordDefaults(t *testing.T) {
	req := content.Request{
		BusinessName: "Blue Oak Café", BusinessType: "Coffee shop", Industry: "Food",
		Location: "Austin, TX", Description: "Small-batch coffee.",
	}
	rec := NewRecord("owner@blueoak.test", req, content.FromRaw("hi"))

	if rec.Slug != "blue-oak-cafe" {
		t.Fatalf("slug = %q", rec.Slug)
	}
	if rec.ColorScheme != DefaultColorScheme || rec.LayoutStyle != DefaultLayoutStyle || rec.IsPublished {
		t.Fatalf("defaults not applied: %+v", rec)
	}
	if rec.OwnerEmail != "owner@blueoak.test" || rec.Industry != "Food" {
		t.Fatalf("fields not copied: %+v", rec)
	}
}
