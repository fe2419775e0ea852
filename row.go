package goduck

import (
	"fmt"
	"strings"
)

// Column is one value of a decoded row together with its result column name
// and position.
type Column struct {
	Name    string
	Ordinal int
	Field   Field
}

// Row is a decoded result row. Ordinals run from 0 in column order.
type Row []Column

// Get returns the first column called name.
func (r Row) Get(name string) (Field, error) {
	for _, c := range r {
		if c.Name == name {
			return c.Field, nil
		}
	}
	names := make([]string, len(r))
	for i, c := range r {
		names[i] = c.Name
	}
	return Field{}, fmt.Errorf("%w: %q, have %s", ErrColumnNotFound, name, strings.Join(names, ", "))
}

// At returns the column at ordinal i.
func (r Row) At(i int) (Field, error) {
	if i < 0 || i >= len(r) {
		return Field{}, fmt.Errorf("%w: column %d of %d", ErrIndexOutOfRange, i, len(r))
	}
	return r[i].Field, nil
}

// Values converts every column with Field.Value.
func (r Row) Values() []any {
	values := make([]any, len(r))
	for i, c := range r {
		values[i] = c.Field.Value()
	}
	return values
}

func (r Row) String() string {
	parts := make([]string, len(r))
	for i, c := range r {
		parts[i] = c.Name + ": " + c.Field.literal()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
