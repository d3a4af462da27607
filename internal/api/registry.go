package api

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/smileynet/atelier/internal/rescache"
)

// Row is one rendered record.
type Row struct {
	ID    string
	Cells []string
}

// TablePage is one page of rendered rows.
type TablePage struct {
	Rows       []Row
	TotalPages int
	TotalItems int
}

// Table is the kind-agnostic view of a resource used by the console and
// the CLI.
type Table interface {
	Kind() rescache.Kind
	Title() string
	Columns() []string
	SeasonScoped() bool
	Toggleable() bool
	Rows(ctx context.Context, p ListParams) Envelope[TablePage]
	Delete(ctx context.Context, id string) Envelope[struct{}]
	ToggleRow(ctx context.Context, id string) Envelope[struct{}]
}

// Verify Resource satisfies Table at compile time.
var _ Table = (*Resource[User, UserInput])(nil)

// Kind returns the resource kind.
func (r *Resource[T, I]) Kind() rescache.Kind { return r.def.Kind }

// Title returns the plural display name.
func (r *Resource[T, I]) Title() string { return r.def.Title }

// Columns returns the column headers for Rows.
func (r *Resource[T, I]) Columns() []string { return r.def.Columns }

// SeasonScoped reports whether lists are filtered by the active season.
func (r *Resource[T, I]) SeasonScoped() bool { return r.def.SeasonScoped }

// Toggleable reports whether records carry an active flag.
func (r *Resource[T, I]) Toggleable() bool { return r.def.Toggleable }

// Rows lists one page and renders it.
func (r *Resource[T, I]) Rows(ctx context.Context, p ListParams) Envelope[TablePage] {
	env := r.List(ctx, p)
	if !env.OK() {
		return Envelope[TablePage]{Status: env.Status, Message: env.Message}
	}
	tp := TablePage{
		Rows:       make([]Row, 0, len(env.Data.Records)),
		TotalPages: env.Data.TotalPages,
		TotalItems: env.Data.TotalItems,
	}
	for _, rec := range env.Data.Records {
		row := Row{ID: rec.Identifier()}
		if r.def.Row != nil {
			row.Cells = r.def.Row(rec)
		}
		tp.Rows = append(tp.Rows, row)
	}
	return Envelope[TablePage]{Status: env.Status, Message: env.Message, Data: tp}
}

// ToggleRow is Toggle without the record.
func (r *Resource[T, I]) ToggleRow(ctx context.Context, id string) Envelope[struct{}] {
	env := r.Toggle(ctx, id)
	return Envelope[struct{}]{Status: env.Status, Message: env.Message}
}

// Registry maps resource kinds to tables, in registration order.
// It is not safe for concurrent use; registration should happen at startup.
type Registry struct {
	tables map[rescache.Kind]Table
	order  []rescache.Kind
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tables: make(map[rescache.Kind]Table)}
}

// Register adds a table under its kind. Overwrites if the kind already
// exists. Panics if t is nil or has an empty kind (programmer error).
func (r *Registry) Register(t Table) {
	if t == nil {
		panic("api: Register called with nil table")
	}
	kind := t.Kind()
	if kind == "" {
		panic("api: Register called with empty kind")
	}
	if _, ok := r.tables[kind]; !ok {
		r.order = append(r.order, kind)
	}
	r.tables[kind] = t
}

// Table returns the table registered for kind.
func (r *Registry) Table(kind rescache.Kind) (Table, error) {
	t, ok := r.tables[kind]
	if !ok {
		return nil, &UnknownKindError{Kind: kind, Available: r.AvailableKinds()}
	}
	return t, nil
}

// Kinds returns registered kinds in registration order.
func (r *Registry) Kinds() []rescache.Kind {
	return slices.Clone(r.order)
}

// AvailableKinds returns registered kinds as sorted strings.
func (r *Registry) AvailableKinds() []string {
	names := make([]string, 0, len(r.order))
	for _, k := range r.order {
		names = append(names, string(k))
	}
	slices.Sort(names)
	return names
}

// UnknownKindError indicates a kind is not registered.
type UnknownKindError struct {
	Kind      rescache.Kind
	Available []string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown resource kind %q (available: %s)", e.Kind, strings.Join(e.Available, ", "))
}
