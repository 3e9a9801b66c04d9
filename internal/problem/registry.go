package problem

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrTargetExists    = errors.New("problem: target already exists")
	ErrTargetNil       = errors.New("problem: target is nil")
	ErrInvalidMetadata = errors.New("problem: invalid target metadata")
	ErrTargetUnknown   = errors.New("problem: unknown target")
)

// Registry stores targets by stable identifier.
type Registry struct {
	items map[string]Target
}

// NewRegistry creates an empty target registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]Target)}
}

// ValidateMetadata checks required metadata fields and id format.
func ValidateMetadata(meta Metadata) error {
	id := strings.TrimSpace(meta.ID)
	name := strings.TrimSpace(meta.Name)
	desc := strings.TrimSpace(meta.Description)
	if id == "" || name == "" || desc == "" {
		return fmt.Errorf("%w: id, name, and description are required", ErrInvalidMetadata)
	}
	if !isValidID(id) {
		return fmt.Errorf("%w: invalid id format %q", ErrInvalidMetadata, id)
	}
	return nil
}

// Register adds a target to the registry.
func (r *Registry) Register(target Target) error {
	if target == nil {
		return ErrTargetNil
	}

	meta := target.Metadata()
	if err := ValidateMetadata(meta); err != nil {
		return err
	}

	if _, ok := r.items[meta.ID]; ok {
		return ErrTargetExists
	}
	r.items[meta.ID] = target
	return nil
}

// Resolve returns a target by id.
func (r *Registry) Resolve(id string) (Target, bool) {
	target, ok := r.items[id]
	return target, ok
}

// ListMetadata returns deterministic metadata ordering by id.
func (r *Registry) ListMetadata() []Metadata {
	list := make([]Metadata, 0, len(r.items))
	for _, target := range r.items {
		list = append(list, target.Metadata())
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})
	return list
}

func isValidID(id string) bool {
	if id == "" {
		return false
	}
	lastSep := false
	for i := 0; i < len(id); i++ {
		c := id[i]
		isLower := c >= 'a' && c <= 'z'
		isDigit := c >= '0' && c <= '9'
		isSep := c == '.' || c == '-' || c == '_'
		if !(isLower || isDigit || isSep) {
			return false
		}
		if i == 0 || i == len(id)-1 {
			if isSep {
				return false
			}
		}
		if isSep && lastSep {
			return false
		}
		lastSep = isSep
	}
	return true
}
