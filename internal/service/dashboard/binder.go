package dashboard

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/heartmarshall/presence-dashboard/internal/domain"
	"github.com/heartmarshall/presence-dashboard/internal/page"
)

type fieldKey struct {
	domain domain.Domain
	field  string
}

// Binder wires display fields to edit mode and the local cache. Field
// edits are staged in the cache only; nothing here talks to the backend.
type Binder struct {
	modes *EditModes
	cache *Cache

	mu       sync.Mutex
	bound    map[fieldKey]*page.Document
	controls map[fieldKey]*page.Document
}

func NewBinder(modes *EditModes, cache *Cache) *Binder {
	return &Binder{
		modes:    modes,
		cache:    cache,
		bound:    make(map[fieldKey]*page.Document),
		controls: make(map[fieldKey]*page.Document),
	}
}

// Bind discovers the editable display fields of doc, replacing any
// earlier binding of the same document name. Native controls are not
// made editable; they follow their domain's edit mode and take values
// through SetValue. It returns the number of bound display fields.
func (b *Binder) Bind(doc *page.Document) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, m := range []map[fieldKey]*page.Document{b.bound, b.controls} {
		for k, d := range m {
			if d.Name() == doc.Name() {
				delete(m, k)
			}
		}
	}

	count := 0
	natives := make(map[domain.Domain]bool)
	for _, f := range doc.Fields() {
		if !bindable(f.Domain) || isManaged(f.Domain, f.Name) {
			continue
		}
		key := fieldKey{f.Domain, f.Name}
		if f.Native {
			natives[f.Domain] = true
			b.controls[key] = doc
			continue
		}
		b.bound[key] = doc
		count++
	}
	for d := range natives {
		doc.SetDisabled(d, !b.modes.Enabled(d))
	}
	return count
}

// Activate handles a click on a field. The field becomes editable, with
// its whole content selected, only while its domain is in edit mode.
func (b *Binder) Activate(d domain.Domain, field string) (bool, error) {
	doc, err := b.lookup(d, field)
	if err != nil {
		return false, err
	}
	if !b.modes.Enabled(d) {
		return false, nil
	}

	doc.SetEditable(d, field, true)
	doc.SelectAll(d, field)
	return true, nil
}

// Commit handles blur: the trimmed text is staged into the cache, in the
// shape of the value it replaces, and the field leaves edit state. It
// reports false when the field was not being edited.
func (b *Binder) Commit(d domain.Domain, field, text string) (bool, error) {
	doc, err := b.lookup(d, field)
	if err != nil {
		return false, err
	}
	if !doc.IsEditable(d, field) {
		return false, nil
	}

	value := strings.TrimSpace(text)
	doc.SetEditable(d, field, false)
	doc.SetText(d, field, value)
	b.cache.StageText(d, field, value)
	return true, nil
}

// SetValue handles a change on a native control. The value is written into
// the control and staged like a committed field, but only while the
// domain is in edit mode. Select values must be one of the options.
func (b *Binder) SetValue(d domain.Domain, field, value string) (bool, error) {
	b.mu.Lock()
	doc, ok := b.controls[fieldKey{d, field}]
	b.mu.Unlock()
	if !ok {
		return false, fmt.Errorf("control %s.%s: %w", d, field, domain.ErrNotFound)
	}
	if !b.modes.Enabled(d) {
		return false, nil
	}
	if options, isSelect := doc.Options(d, field); isSelect && !slices.Contains(options, value) {
		return false, domain.NewValidationError(field, "must be one of the listed options")
	}

	doc.SetText(d, field, value)
	b.cache.StageText(d, field, value)
	return true, nil
}

// Key handles a key press in a field being edited. Enter without shift
// and Escape commit like blur; other keys are left to the client.
func (b *Binder) Key(d domain.Domain, field, key string, shift bool, text string) (bool, error) {
	switch {
	case key == "Enter" && !shift, key == "Escape":
		return b.Commit(d, field, text)
	}
	if _, err := b.lookup(d, field); err != nil {
		return false, err
	}
	return false, nil
}

// Bound reports whether (d, field) is a bound display field.
func (b *Binder) Bound(d domain.Domain, field string) bool {
	_, err := b.lookup(d, field)
	return err == nil
}

func (b *Binder) lookup(d domain.Domain, field string) (*page.Document, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	doc, ok := b.bound[fieldKey{d, field}]
	if !ok {
		return nil, fmt.Errorf("field %s.%s: %w", d, field, domain.ErrNotFound)
	}
	return doc, nil
}

func bindable(d domain.Domain) bool {
	return d.IsValid() && !d.IsCollection() && d != domain.DomainAccounts
}
