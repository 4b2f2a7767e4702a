package crdt

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Composite derives the CRDT contract for a compound value from its fields.
// Each named field is itself a CRDT; the composite's merge is the field-wise
// merge paired by name. Because each field's merge is idempotent,
// commutative and associative, the composite's merge inherits all three
// laws by direct product construction. For the same reason the composite
// enforces no cross-field invariants: any coupling between fields would
// break that construction.
//
// Composite itself implements Mergeable, so composites nest.
type Composite struct {
	fields map[string]Mergeable
}

// NewComposite creates a composite with no fields. Fields are attached with
// With; the field set is fixed once replicas start exchanging state, since
// merge requires identical field sets on both sides.
func NewComposite() *Composite {
	return &Composite{fields: make(map[string]Mergeable)}
}

// With attaches a field under the given name and returns the composite for
// chaining. Attaching a name twice replaces the earlier field.
func (c *Composite) With(name string, field Mergeable) *Composite {
	c.fields[name] = field
	return c
}

// FieldNames returns the composite's field names, sorted.
func (c *Composite) FieldNames() []string {
	names := make([]string, 0, len(c.fields))
	for name := range c.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Field returns the named field.
func (c *Composite) Field(name string) (Mergeable, bool) {
	f, ok := c.fields[name]
	return f, ok
}

// Update applies a field-targeted mutation: it resolves the named field and
// hands it to fn. Naming an absent field is a precondition violation.
func (c *Composite) Update(name string, fn func(Mergeable) error) error {
	f, ok := c.fields[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return fn(f)
}

// Merge folds another composite in, field by field. Both composites must
// carry exactly the same field names.
func (c *Composite) Merge(other Mergeable) error {
	o, ok := other.(*Composite)
	if !ok {
		return fmt.Errorf("%w: %T into %T", ErrTypeMismatch, other, c)
	}
	if err := c.checkSameFields(o); err != nil {
		return err
	}
	for name, f := range c.fields {
		if err := f.Merge(o.fields[name]); err != nil {
			return fmt.Errorf("merge field %q: %w", name, err)
		}
	}
	return nil
}

// Clone returns a deep copy of the composite.
func (c *Composite) Clone() Mergeable {
	out := NewComposite()
	for name, f := range c.fields {
		out.fields[name] = f.Clone()
	}
	return out
}

// Equal reports whether both composites carry the same fields with equal
// states.
func (c *Composite) Equal(other Mergeable) bool {
	o, ok := other.(*Composite)
	if !ok {
		return false
	}
	if c.checkSameFields(o) != nil {
		return false
	}
	for name, f := range c.fields {
		if !f.Equal(o.fields[name]) {
			return false
		}
	}
	return true
}

func (c *Composite) checkSameFields(o *Composite) error {
	if len(c.fields) != len(o.fields) {
		return fmt.Errorf("%w: %v vs %v", ErrFieldMismatch, c.FieldNames(), o.FieldNames())
	}
	for name := range c.fields {
		if _, ok := o.fields[name]; !ok {
			return fmt.Errorf("%w: %v vs %v", ErrFieldMismatch, c.FieldNames(), o.FieldNames())
		}
	}
	return nil
}

// MarshalJSON encodes the composite as an object keyed by field name.
func (c *Composite) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.fields)
}

// UnmarshalJSON decodes into the composite's existing fields: the receiver
// supplies the schema (field names and concrete types), the data supplies
// the states. Field names that do not line up are an error.
func (c *Composite) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("crdt: invalid composite: %w", err)
	}
	for name := range raw {
		if _, ok := c.fields[name]; !ok {
			return fmt.Errorf("%w: %q not in schema %v", ErrUnknownField, name, c.FieldNames())
		}
	}
	for name, f := range c.fields {
		fieldData, ok := raw[name]
		if !ok {
			return fmt.Errorf("%w: %q missing from data", ErrFieldMismatch, name)
		}
		u, ok := f.(json.Unmarshaler)
		if !ok {
			return fmt.Errorf("crdt: field %q does not support decoding", name)
		}
		if err := u.UnmarshalJSON(fieldData); err != nil {
			return fmt.Errorf("decode field %q: %w", name, err)
		}
	}
	return nil
}

// Get resolves a named field attached via Dyn and returns its statically
// typed state. The returned state is live, not a copy; use Apply for
// mutation so absent fields surface as errors.
func Get[S CRDT[S]](c *Composite, name string) (S, error) {
	f, ok := c.fields[name]
	if !ok {
		var zero S
		return zero, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return Unwrap[S](f)
}

// Apply runs a statically typed mutation against a named field attached via
// Dyn.
func Apply[S CRDT[S]](c *Composite, name string, fn func(S)) error {
	state, err := Get[S](c, name)
	if err != nil {
		return err
	}
	fn(state)
	return nil
}
