package models

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/san-kum/cosimrun/internal/cosim"
)

const BuiltinScheme = "builtin"

// Registry resolves model references to builtin models and caches every
// model it has resolved, keyed by its canonical URI.
type Registry struct {
	defs map[string]*Definition

	mu    sync.Mutex
	cache map[string]cosim.Model
}

func NewRegistry() *Registry {
	r := &Registry{
		defs:  make(map[string]*Definition),
		cache: make(map[string]cosim.Model),
	}
	r.Register(Pendulum)
	r.Register(SpringMass)
	r.Register(VanDerPol)
	r.Register(Duffing)
	r.Register(DoublePendulum)
	return r
}

func (r *Registry) Register(def *Definition) {
	r.defs[def.Name] = def
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Definition(name string) (*Definition, bool) {
	def, ok := r.defs[name]
	return def, ok
}

// BaseURI turns a directory into a file URI suitable as the base for
// resolving relative model references.
func BaseURI(dir string) string {
	p := filepath.ToSlash(dir)
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}

// ToURI accepts either a URI or a filesystem path.
func ToURI(reference string) (*url.URL, error) {
	u, err := url.Parse(reference)
	if err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		return u, nil
	}
	return &url.URL{Path: filepath.ToSlash(reference)}, nil
}

// LookupModel resolves reference against baseURI. "builtin:<name>" and
// "builtin:///<name>" name a builtin directly; paths and file URIs name
// the builtin matching their base name without extension.
func (r *Registry) LookupModel(baseURI, reference string) (cosim.Model, error) {
	ref, err := ToURI(reference)
	if err != nil {
		return nil, err
	}

	var name string
	switch ref.Scheme {
	case BuiltinScheme:
		name = ref.Opaque
		if name == "" {
			name = strings.TrimPrefix(ref.Path, "/")
		}
	case "", "file":
		if ref.Scheme == "" && baseURI != "" {
			base, err := url.Parse(baseURI)
			if err != nil {
				return nil, fmt.Errorf("invalid base URI %q: %w", baseURI, err)
			}
			ref = base.ResolveReference(ref)
		}
		name = strings.TrimSuffix(path.Base(ref.Path), path.Ext(ref.Path))
	default:
		return nil, fmt.Errorf("unsupported URI scheme: %s", ref.Scheme)
	}

	def, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s (available: %v)", name, r.Names())
	}

	key := BuiltinScheme + ":" + name
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.cache[key]; ok {
		return m, nil
	}
	m, err := NewModel(def)
	if err != nil {
		return nil, err
	}
	r.cache[key] = m
	return m, nil
}
