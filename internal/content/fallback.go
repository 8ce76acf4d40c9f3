// internal/content/fallback.go
//
// Deterministic template used when the AI call is unavailable.
//
// Context
// -------
// Fallback builds a complete Document from the five request fields alone.
// The same input always yields the same output, so tests can assert on it
// and a retried request does not produce different copy.  Services come
// from a small keyword table on business type and industry, topped up with
// generic entries so there are always at least three.
package content

import (
	"fmt"
	"strings"
	"unicode"
)

// minServices is the floor for Document.Services.
const minServices = 3

var serviceCatalog = []struct {
	keywords []string
	services []ServiceItem
}{
	{
		keywords: []string{"cafe", "café", "coffee", "bakery", "tea"},
		services: []ServiceItem{
			{"Specialty Coffee", "Espresso drinks and pour-overs prepared to order."},
			{"Fresh Bakes", "Pastries and light bites baked every morning."},
			{"Catering", "Coffee and snack platters for meetings and events."},
		},
	},
	{
		keywords: []string{"restaurant", "food", "dining", "kitchen", "bistro"},
		services: []ServiceItem{
			{"Dine-In", "Seasonal plates served in a relaxed setting."},
			{"Takeaway", "Order ahead and collect your meal on the way home."},
			{"Private Events", "Set menus for birthdays, teams, and celebrations."},
		},
	},
	{
		keywords: []string{"salon", "spa", "beauty", "barber", "wellness"},
		services: []ServiceItem{
			{"Cuts and Styling", "Tailored cuts and finishes for every hair type."},
			{"Treatments", "Restorative treatments for hair, skin, and nails."},
			{"Packages", "Bundled sessions for special occasions."},
		},
	},
	{
		keywords: []string{"software", "technology", "tech", "it", "digital"},
		services: []ServiceItem{
			{"Consulting", "Practical advice on the systems your business runs on."},
			{"Development", "Custom tools built and maintained by our team."},
			{"Support", "Responsive help when something stops working."},
		},
	},
	{
		keywords: []string{"fitness", "gym", "yoga", "sport"},
		services: []ServiceItem{
			{"Group Classes", "Energising sessions for every fitness level."},
			{"Personal Training", "One-to-one coaching built around your goals."},
			{"Memberships", "Flexible plans with full facility access."},
		},
	},
}

// Fallback returns the template Document for req.
func Fallback(req Request) Content {
	name := strings.TrimSpace(req.BusinessName)
	kind := strings.TrimSpace(req.BusinessType)
	industry := strings.TrimSpace(req.Industry)
	location := strings.TrimSpace(req.Location)
	desc := strings.TrimSpace(req.Description)

	doc := Document{
		Hero: Hero{
			Title:    name,
			Subtitle: fmt.Sprintf("A %s in %s", strings.ToLower(desc), location),
			CTA:      "Get in touch",
		},
		About: About{
			Heading: "About " + name,
			Body: fmt.Sprintf("%s is a %s serving %s in the %s industry.  "+
				"We are a %s and we take pride in doing it well.",
				name, strings.ToLower(kind), location, industry, strings.ToLower(desc)),
		},
		Services: pickServices(kind, industry, name, location),
		Testimonials: []Testimonial{
			{Quote: fmt.Sprintf("%s has become our first choice in %s.", name, location), Author: "A regular customer"},
			{Quote: "Friendly people and consistently great results.", Author: "A local neighbour"},
		},
		Contact: Contact{
			Heading:  "Visit " + name,
			Location: location,
			Body:     fmt.Sprintf("Find us in %s or send us a message and we will get back to you.", location),
		},
		Footer: Footer{Text: fmt.Sprintf("© %s.  All rights reserved.", name)},
	}
	return FromDocument(doc)
}

func pickServices(kind, industry, name, location string) []ServiceItem {
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(kind+" "+industry), notWordRune) {
		words[w] = true
	}
	var out []ServiceItem
	for _, entry := range serviceCatalog {
		for _, kw := range entry.keywords {
			if words[kw] {
				out = append(out, entry.services...)
				break
			}
		}
		if len(out) > 0 {
			break
		}
	}
	generic := []ServiceItem{
		{kind + " Services", fmt.Sprintf("Everything you expect from a trusted %s.", strings.ToLower(kind))},
		{industry + " Expertise", fmt.Sprintf("Years of hands-on experience in %s.", industry)},
		{"Local Care", fmt.Sprintf("%s is proud to serve customers across %s.", name, location)},
	}
	for i := 0; len(out) < minServices && i < len(generic); i++ {
		out = append(out, generic[i])
	}
	return out
}

func notWordRune(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) }
