// internal/view/funcs.go
//
// Template helpers shared by every page.
//
//	{{ dict "k" 1 "k2" "v" }}        ad-hoc maps for partials
//	{{ pretty .Data.Content }}       indented JSON for debugging views
//	{{ asset "css/site.css" }}       static URL
//	{{ csrfToken }}                  token for hand-written POST forms
//	{{ device .Info }} {{ isBot .Info }} {{ country .Info }}
package view

import (
	"encoding/json"
	"html/template"
	"strings"
	"time"

	"github.com/yanizio/sitecraft/internal/form"
	"github.com/yanizio/sitecraft/internal/requestinfo"
)

func funcMap(assetPrefix string) template.FuncMap {
	return template.FuncMap{
		"dict":   dict,
		"pretty": pretty,
		"asset":  func(p string) string { return assetPrefix + strings.TrimPrefix(p, "/") },
		"year":   func() int { return time.Now().Year() },
		"csrfToken": func() (string, error) {
			return form.GenerateToken()
		},

		"browser": func(i *requestinfo.RequestInfo) string {
			if i == nil {
				return ""
			}
			return i.UA.Browser
		},
		"device": func(i *requestinfo.RequestInfo) string {
			if i == nil || i.UA.Device == "" {
				return "Other"
			}
			return i.UA.Device
		},
		"isBot": func(i *requestinfo.RequestInfo) bool {
			return i != nil && i.UA.IsBot
		},
		"country": func(i *requestinfo.RequestInfo) string {
			if i == nil {
				return ""
			}
			return i.Geo.CountryISO
		},
	}
}

// dict builds a map in templates.  Odd trailing keys are ignored.
func dict(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		m[key] = kv[i+1]
	}
	return m
}

// pretty renders v as indented JSON.  Strings holding JSON are re-indented;
// other strings come back unchanged.
func pretty(v any) string {
	if s, ok := v.(string); ok {
		var decoded any
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			return s
		}
		v = decoded
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return string(out)
}
