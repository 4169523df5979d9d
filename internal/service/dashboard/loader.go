package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"sync"

	"github.com/heartmarshall/presence-dashboard/internal/domain"
	"github.com/heartmarshall/presence-dashboard/internal/page"
)

// Module is the supporting behaviour of a section. Init runs once per
// dashboard lifetime, on the first visit; Populate runs after every load
// and must be idempotent.
type Module struct {
	Init     func(ctx context.Context, doc *page.Document) error
	Populate func(doc *page.Document)
}

// Source tells where a loaded section's markup came from.
type Source string

const (
	SourceTemplate    Source = "template"
	SourcePlaceholder Source = "placeholder"
	SourceGeneric     Source = "generic"
)

// Ready is published once a section's markup has been injected.
type Ready struct {
	Section    string
	Doc        *page.Document
	FirstVisit bool
}

// Loader renders sections: template injection, one-time module init and
// data population, in that order.
type Loader struct {
	log       *slog.Logger
	templates templateSource
	modules   map[string]Module

	mu      sync.Mutex
	docs    map[string]*page.Document
	sources map[string]Source
	loaded  map[string]bool
	current string
	subs    []func(Ready)
}

func NewLoader(logger *slog.Logger, templates templateSource, modules map[string]Module) *Loader {
	return &Loader{
		log:       logger.With("component", "loader"),
		templates: templates,
		modules:   modules,
		docs:      make(map[string]*page.Document),
		sources:   make(map[string]Source),
		loaded:    make(map[string]bool),
	}
}

// OnReady subscribes fn to section injections. Subscribers run
// synchronously, before module init and population.
func (l *Loader) OnReady(fn func(Ready)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subs = append(l.subs, fn)
}

// Show makes section the visible one and loads it.
func (l *Loader) Show(ctx context.Context, section string) (*page.Document, error) {
	if !sectionNameRe.MatchString(section) {
		return nil, fmt.Errorf("show %q: %w", section, domain.ErrUnknownSection)
	}

	l.mu.Lock()
	for _, doc := range l.docs {
		doc.SetActive(false)
	}
	l.current = section
	l.mu.Unlock()

	return l.Load(ctx, section)
}

// Load injects the section's markup, then attaches its module on the
// first visit, then populates it. It never fails because of a missing
// template; the built-in placeholder is used instead.
func (l *Loader) Load(ctx context.Context, section string) (*page.Document, error) {
	if !sectionNameRe.MatchString(section) {
		return nil, fmt.Errorf("load %q: %w", section, domain.ErrUnknownSection)
	}

	doc, source, err := l.render(ctx, section, section, func(markup string) (*page.Document, error) {
		return page.Parse(section, markup)
	})
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	if l.current == section {
		doc.SetActive(true)
	}
	l.docs[section] = doc
	l.sources[section] = source
	first := !l.loaded[section]
	l.loaded[section] = true
	subs := slices.Clone(l.subs)
	l.mu.Unlock()

	for _, fn := range subs {
		fn(Ready{Section: section, Doc: doc, FirstVisit: first})
	}

	mod := l.modules[section]
	if first && mod.Init != nil {
		if err := mod.Init(ctx, doc); err != nil {
			l.log.WarnContext(ctx, "section init failed",
				slog.String("section", section),
				slog.String("error", err.Error()),
			)
			l.mu.Lock()
			delete(l.loaded, section)
			l.mu.Unlock()
		}
	}
	if mod.Populate != nil {
		mod.Populate(doc)
	}

	return doc, nil
}

// LoadTab loads a nested tab of section with the same fallback chain. The
// parent section's population runs against the tab.
func (l *Loader) LoadTab(ctx context.Context, section, tab string) (*page.Document, error) {
	if !sectionNameRe.MatchString(section) || !sectionNameRe.MatchString(tab) {
		return nil, fmt.Errorf("load tab %q/%q: %w", section, tab, domain.ErrUnknownSection)
	}

	name := section + "/" + tab
	doc, source, err := l.render(ctx, name, "", func(markup string) (*page.Document, error) {
		return page.ParseTab(section, tab, markup)
	})
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.docs[name] = doc
	l.sources[name] = source
	subs := slices.Clone(l.subs)
	l.mu.Unlock()

	for _, fn := range subs {
		fn(Ready{Section: name, Doc: doc})
	}
	if mod := l.modules[section]; mod.Populate != nil {
		mod.Populate(doc)
	}
	return doc, nil
}

// render fetches the markup of name. On failure it falls back to the
// built-in placeholder of section, or to the generic page when section is
// empty or unknown.
func (l *Loader) render(ctx context.Context, name, section string, parse func(string) (*page.Document, error)) (*page.Document, Source, error) {
	markup, err := l.templates.Fetch(ctx, name)
	if err == nil {
		doc, perr := parse(markup)
		if perr == nil {
			return doc, SourceTemplate, nil
		}
		err = perr
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, "", fmt.Errorf("load %s: %w", name, ctxErr)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		l.log.WarnContext(ctx, "template unavailable",
			slog.String("section", name),
			slog.String("error", err.Error()),
		)
	}

	source := SourceGeneric
	if _, ok := LookupRoute(section); ok {
		source = SourcePlaceholder
	}
	markup, err = placeholder(section, path.Base(name))
	if err != nil {
		return nil, "", err
	}
	doc, err := parse(markup)
	if err != nil {
		return nil, "", err
	}
	return doc, source, nil
}

// Current returns the visible section.
func (l *Loader) Current() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Document returns the loaded document of a section or "section/tab".
func (l *Loader) Document(name string) (*page.Document, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	doc, ok := l.docs[name]
	return doc, ok
}

// Documents returns every loaded document, visible or not.
func (l *Loader) Documents() []*page.Document {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]*page.Document, 0, len(l.docs))
	for _, doc := range l.docs {
		out = append(out, doc)
	}
	return out
}

// Source reports where the loaded markup of name came from.
func (l *Loader) Source(name string) Source {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sources[name]
}

// IsLoaded reports whether section's module has been attached.
func (l *Loader) IsLoaded(section string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded[section]
}
