package forecast

import (
	"fmt"

	"budgetcast/internal/core"
)

// Registry is the name-keyed account set of one simulation. Iteration follows
// insertion order.
type Registry struct {
	order  []*core.Account
	byName map[string]*core.Account
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*core.Account)}
}

// Add registers a; names must be unique.
func (r *Registry) Add(a *core.Account) error {
	if _, ok := r.byName[a.Name]; ok {
		return &core.ValidationError{Record: "account " + a.Name, Field: "AccountName", Value: a.Name, Err: core.ErrDuplicateAccount}
	}
	r.order = append(r.order, a)
	r.byName[a.Name] = a
	return nil
}

// Lookup resolves name or returns a *core.ReferenceError naming role.
func (r *Registry) Lookup(role, name string) (*core.Account, error) {
	if a, ok := r.byName[name]; ok {
		return a, nil
	}
	return nil, &core.ReferenceError{Role: role, Name: name, Known: r.Names()}
}

// All returns the accounts in insertion order. The slice is shared; do not
// modify it.
func (r *Registry) All() []*core.Account { return r.order }

func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	for i, a := range r.order {
		names[i] = a.Name
	}
	return names
}

func (r *Registry) Len() int { return len(r.order) }

// Total sums every balance.
func (r *Registry) Total() core.Money {
	var total core.Money
	for _, a := range r.order {
		total = total.Add(a.Balance)
	}
	return total
}

// Clone deep-copies every account.
func (r *Registry) Clone() *Registry {
	c := NewRegistry()
	for _, a := range r.order {
		if err := c.Add(a.Clone()); err != nil {
			panic(fmt.Sprintf("forecast: cloning registry: %v", err))
		}
	}
	return c
}
