package admin

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/accounts_admin/internal/models"
)

// ErrAlreadyRegistered is returned when an entity is registered twice.
var ErrAlreadyRegistered = errors.New("entity already registered")

// ErrNotRegistered is returned by Get for unknown entities.
var ErrNotRegistered = errors.New("entity not registered")

// Entity identifies a model the back office can manage.
type Entity struct {
	Name   string
	Table  string
	Fields map[string]models.FieldKind
}

// Registration is a registered entity together with its effective descriptor.
type Registration struct {
	Entity     Entity
	Descriptor Descriptor
	// Declared is the descriptor as passed to Register, before any overlap resolution.
	Declared Descriptor
}

// Registry binds entities to descriptors.
type Registry struct {
	mu     sync.RWMutex
	strict bool
	items  map[string]Registration
}

// NewRegistry creates a Registry. In strict mode any validation issue
// rejects the registration; otherwise a read-only/list-editable overlap is
// logged and resolved by dropping the field from list_editable.
func NewRegistry(strict bool) *Registry {
	return &Registry{strict: strict, items: make(map[string]Registration)}
}

// Register validates d and binds it to entity.
func (r *Registry) Register(entity Entity, d Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[entity.Name]; ok {
		return fmt.Errorf("%s: %w", entity.Name, ErrAlreadyRegistered)
	}

	effective := d.Clone()
	if err := d.Validate(entity.Name, entity.Fields); err != nil {
		var verr *ValidationError
		if r.strict || !errors.As(err, &verr) || !verr.OnlyOverlap() {
			return err
		}
		for _, f := range d.Overlap() {
			log.Warn().
				Str("entity", entity.Name).
				Str("field", f).
				Msg("Field is both read-only and list-editable; treating it as read-only")
		}
		effective = d.WithoutOverlap()
	}

	r.items[entity.Name] = Registration{
		Entity:     entity,
		Descriptor: effective,
		Declared:   d.Clone(),
	}
	log.Info().Str("entity", entity.Name).Msg("Admin descriptor registered")
	return nil
}

// Get returns a copy of the registration for name.
func (r *Registry) Get(name string) (Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.items[name]
	if !ok {
		return Registration{}, fmt.Errorf("%s: %w", name, ErrNotRegistered)
	}
	reg.Descriptor = reg.Descriptor.Clone()
	reg.Declared = reg.Declared.Clone()
	return reg, nil
}

// Entities returns the registered entity names in sorted order.
func (r *Registry) Entities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
