package ast

// Schema is the unresolved parse result of one schema source.
type Schema struct {
	Messages []*Message
}

type Message struct {
	Name   string
	Fields []*Field
	ID     uint32 // 0 when not declared
	Line   int
}

type Presence uint8

const (
	PresenceDefault Presence = iota
	PresenceOptional
	PresenceRequired
)

type Field struct {
	Name     string
	Type     string // builtin name or message name, unresolved
	Presence Presence
	Repeated bool
	Line     int
}
