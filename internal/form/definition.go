// internal/form/definition.go
//
// Forms subsystem: YAML definition loader.
//
// Context
//   Each HTML form is declared in a YAML file that ships inside its
//   component (`components/<comp>/forms/*.yaml`, embedded with go:embed).
//   At Init time every component hands its forms FS to RegisterFS, which
//   parses each file and stores the resulting FormDef in an in-memory
//   registry.  The renderer and the validator fetch definitions from this
//   registry by ID, so the YAML is the single source of truth for labels,
//   HTML5 hints, and server-side rules.
//
// Workflow
//   •  Structs mirror the YAML schema: FormDef → FieldDef.
//   •  ParseFormDef parses one YAML document and validates structural rules.
//   •  RegisterFS walks an fs.FS, loads every "*.yaml", and registers it.
//   •  GetFormDef offers safe, read-only access to a parsed form by ID.
//
// Style
//   Full sentences, two spaces after periods, Oxford commas.
//
//------------------------------------------------------------------------------

package form

import (
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// FormDef represents one form definition loaded from YAML.
//
// ID is namespaced by component, e.g. "auth/login".  MinFillSeconds, when
// positive, rejects submissions that arrive faster than a person could type
// (a cheap bot filter); zero disables the timing check.
type FormDef struct {
	ID             string     `yaml:"id"`
	Title          string     `yaml:"title"`
	Submit         string     `yaml:"submit"`
	MinFillSeconds int        `yaml:"min_fill_seconds"`
	Fields         []FieldDef `yaml:"fields"`
}

// FieldDef describes a single input control on the form.  Validation metadata
// lives inline so the server enforces the same rules the browser hints at.
type FieldDef struct {
	Name        string   `yaml:"name"`        // Submission key.  Required.
	Label       string   `yaml:"label"`       // Human-readable label.  Required.
	Type        string   `yaml:"type"`        // text, textarea, email, password, number, select, checkbox.
	Placeholder string   `yaml:"placeholder"` // Optional hint text.
	Help        string   `yaml:"help"`        // Optional help line under the control.
	Required    bool     `yaml:"required"`    // True if input is mandatory.
	MinLength   int      `yaml:"minlength"`   // ≥ 0, 0 means unset.
	MaxLength   int      `yaml:"maxlength"`   // ≥ 0, 0 means unset.
	Rows        int      `yaml:"rows"`        // textarea height, optional.
	Pattern     string   `yaml:"pattern"`     // Regex pattern string.
	Options     []string `yaml:"options"`     // For select.
	ErrorMsg    string   `yaml:"error"`       // Custom error message, optional.

	re *regexp.Regexp
}

var knownTypes = map[string]bool{
	"text": true, "textarea": true, "email": true, "password": true,
	"number": true, "select": true, "checkbox": true,
}

// registry maps form ID → *FormDef.  Guarded by mutex.
var (
	registryMu sync.RWMutex
	registry   = make(map[string]*FormDef)
)

// GetFormDef returns a parsed FormDef by ID.  The boolean is false when the
// ID is unknown.
func GetFormDef(id string) (*FormDef, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	fd, ok := registry[id]
	return fd, ok
}

// ParseFormDef parses one YAML document, validates its structure, and
// returns a populated FormDef.  It never mutates the global registry.
func ParseFormDef(raw []byte, source string) (*FormDef, error) {
	var fd FormDef
	if err := yaml.Unmarshal(raw, &fd); err != nil {
		return nil, fmt.Errorf("parse YAML %s: %w", source, err)
	}
	if err := validateFormDef(&fd, source); err != nil {
		return nil, err
	}
	return &fd, nil
}

// RegisterFS loads every "*.yaml" under root in fsys.  Later registrations
// of the same ID replace earlier ones.
func RegisterFS(fsys fs.FS, root string) error {
	return fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".yaml") {
			return nil
		}
		raw, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("read form file %s: %w", path, err)
		}
		fd, err := ParseFormDef(raw, path)
		if err != nil {
			return err // fail fast so issues surface loudly.
		}
		register(fd)
		return nil
	})
}

func register(fd *FormDef) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[fd.ID] = fd
}

// validateFormDef enforces structural rules that cannot be expressed via
// YAML tags alone.
func validateFormDef(fd *FormDef, source string) error {
	if fd.ID == "" {
		return fmt.Errorf("form definition %s: missing required 'id'", source)
	}
	if len(fd.Fields) == 0 {
		return fmt.Errorf("form definition %s: must have 'fields'", source)
	}
	if fd.MinFillSeconds < 0 {
		return fmt.Errorf("form definition %s: min_fill_seconds cannot be negative", source)
	}

	seen := make(map[string]struct{}, len(fd.Fields))
	for i := range fd.Fields {
		f := &fd.Fields[i]
		if err := validateField(f, source); err != nil {
			return err
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("form %s: duplicate field name '%s'", source, f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// validateField confirms that essential attributes are present and sane, and
// compiles the pattern once.
func validateField(f *FieldDef, source string) error {
	if f.Name == "" {
		return fmt.Errorf("form %s: field missing 'name'", source)
	}
	if f.Label == "" {
		return fmt.Errorf("form %s: field '%s' missing 'label'", source, f.Name)
	}
	if !knownTypes[f.Type] {
		return fmt.Errorf("form %s: field '%s' has unsupported type %q", source, f.Name, f.Type)
	}
	if f.Type == "select" && len(f.Options) == 0 {
		return fmt.Errorf("form %s: select '%s' has no options", source, f.Name)
	}
	if f.Pattern != "" {
		re, err := regexp.Compile(f.Pattern)
		if err != nil {
			return fmt.Errorf("form %s: field '%s' invalid regex pattern: %v", source, f.Name, err)
		}
		f.re = re
	}
	if f.MinLength < 0 || f.MaxLength < 0 {
		return fmt.Errorf("form %s: field '%s' minlength/maxlength cannot be negative", source, f.Name)
	}
	if f.MaxLength > 0 && f.MinLength > f.MaxLength {
		return fmt.Errorf("form %s: field '%s' minlength greater than maxlength", source, f.Name)
	}
	return nil
}
