// internal/site/slug.go
//
// MakeSlug turns a business name into the URL-safe slug stored with each
// record.
//
// Rules
// -----
// 1. Lower-case everything.
// 2. Fold common Latin accents (é → e) so "Blue Oak Café" → "blue-oak-cafe".
// 3. Convert any other run of non-[a-z0-9] characters to one "-".
// 4. Trim leading and trailing "-".
// 5. Empty result → "site".
// 6. Cap at maxSlugLen bytes, the width of website.slug.
package site

import "strings"

const maxSlugLen = 100

var accentFold = map[rune]rune{
	'à': 'a', 'á': 'a', 'â': 'a', 'ä': 'a', 'ã': 'a', 'å': 'a',
	'ç': 'c',
	'è': 'e', 'é': 'e', 'ê': 'e', 'ë': 'e',
	'ì': 'i', 'í': 'i', 'î': 'i', 'ï': 'i',
	'ñ': 'n',
	'ò': 'o', 'ó': 'o', 'ô': 'o', 'ö': 'o', 'õ': 'o',
	'ù': 'u', 'ú': 'u', 'û': 'u', 'ü': 'u',
	'ý': 'y', 'ÿ': 'y',
}

// MakeSlug converts name → lower-kebab ASCII.
func MakeSlug(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	lastWasDash := false
	for _, r := range strings.ToLower(name) {
		if f, ok := accentFold[r]; ok {
			r = f
		}
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastWasDash = false
		case !lastWasDash:
			b.WriteByte('-')
			lastWasDash = true
		}
	}

	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "site"
	}
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	return slug
}
