package schema

import (
	"fmt"
	"strings"
)

// Registry holds every message type declared by one schema source.
// It is read-only after Parse returns and safe for concurrent use.
type Registry struct {
	byName   map[string]*MessageDef
	byID     map[uint32]*MessageDef
	messages []*MessageDef
}

// Lookup returns the message type with the given name.
func (r *Registry) Lookup(name string) (*MessageDef, bool) {
	m, ok := r.byName[name]
	return m, ok
}

// ByID returns the message type with the given wire id.
func (r *Registry) ByID(id uint32) (*MessageDef, bool) {
	m, ok := r.byID[id]
	return m, ok
}

// Messages returns message types in declaration order.
func (r *Registry) Messages() []*MessageDef {
	return append([]*MessageDef(nil), r.messages...)
}

// Names returns message names in declaration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.messages))
	for i, m := range r.messages {
		names[i] = m.Name
	}
	return names
}

func (r *Registry) Len() int {
	return len(r.messages)
}

// String lists every message and field.
func (r *Registry) String() string {
	var b strings.Builder
	for i, m := range r.messages {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(m.String())
	}
	return b.String()
}

// String renders the message header and one line per field.
func (m *MessageDef) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (id %d)\n", m.Name, m.ID)
	for _, f := range m.Fields {
		fmt.Fprintf(&b, "  %d %s %s", f.Index, f.Name, f.TypeString())
		if f.Required() {
			b.WriteString(" required")
		}
		b.WriteByte('\n')
	}
	return b.String()
}
