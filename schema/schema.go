package schema

import (
	stderrors "errors"
	"io/fs"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/sgeproto/errors"
	"github.com/wippyai/sgeproto/schema/internal/ast"
	"github.com/wippyai/sgeproto/schema/internal/parser"
	"github.com/wippyai/sgeproto/schema/internal/token"
	"github.com/wippyai/sgeproto/wire"
)

const bom = "\uFEFF"

var reserved = map[string]bool{
	"message":  true,
	"repeated": true,
	"required": true,
	"optional": true,
}

// Parse compiles schema source into a Registry.
func Parse(source string) (*Registry, error) {
	source = strings.TrimPrefix(source, bom)
	tree, err := parser.New(token.Tokenize(source)).Parse()
	if err != nil {
		return nil, err
	}
	reg, err := resolve(tree)
	if err != nil {
		return nil, err
	}
	Logger().Debug("schema parsed", zap.Int("messages", reg.Len()))
	return reg, nil
}

// ParseFile reads path and compiles it. A missing file returns an error
// matching both errors.ErrNotFound and fs.ErrNotExist.
func ParseFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.NotFound(errors.PhaseLoad, "schema file", path, err)
		}
		return nil, errors.Load("read schema file "+path, err)
	}
	reg, err := Parse(string(data))
	if err != nil {
		return nil, err
	}
	Logger().Debug("schema file loaded", zap.String("path", path))
	return reg, nil
}

func resolve(tree *ast.Schema) (*Registry, error) {
	if len(tree.Messages) == 0 {
		return nil, errors.Semantic(0, "schema declares no message")
	}

	reg := &Registry{
		byName:   make(map[string]*MessageDef, len(tree.Messages)),
		byID:     make(map[uint32]*MessageDef, len(tree.Messages)),
		messages: make([]*MessageDef, 0, len(tree.Messages)),
	}

	// Pass 1: names and explicit ids.
	for _, am := range tree.Messages {
		if _, ok := Builtin(am.Name); ok || reserved[am.Name] {
			return nil, errors.Semantic(am.Line, "message name %q is reserved", am.Name)
		}
		if prev, ok := reg.byName[am.Name]; ok {
			return nil, errors.Semantic(am.Line, "duplicate message %q (first declared on line %d)", am.Name, prev.Line)
		}
		m := &MessageDef{
			Name:   am.Name,
			ID:     am.ID,
			Line:   am.Line,
			byName: make(map[string]*FieldDef, len(am.Fields)),
		}
		if m.ID != 0 {
			if prev, ok := reg.byID[m.ID]; ok {
				return nil, errors.Semantic(am.Line, "message %q reuses id %d of %q", am.Name, m.ID, prev.Name)
			}
			reg.byID[m.ID] = m
		}
		reg.byName[m.Name] = m
		reg.messages = append(reg.messages, m)
	}

	// Undeclared ids take the lowest free numbers in declaration order.
	next := uint32(1)
	for _, m := range reg.messages {
		if m.ID != 0 {
			continue
		}
		for reg.byID[next] != nil {
			next++
		}
		m.ID = next
		reg.byID[next] = m
	}

	// Pass 2: fields and type references.
	for i, am := range tree.Messages {
		m := reg.messages[i]
		if len(am.Fields) > wire.MaxIndex {
			return nil, errors.Semantic(am.Line, "message %q declares too many fields", am.Name)
		}
		m.Fields = make([]*FieldDef, 0, len(am.Fields))
		for j, af := range am.Fields {
			if _, dup := m.byName[af.Name]; dup {
				return nil, errors.Semantic(af.Line, "duplicate field %q in message %q", af.Name, m.Name)
			}
			ft, err := resolveType(reg, af)
			if err != nil {
				return nil, err
			}
			f := &FieldDef{
				Name:  af.Name,
				Type:  ft,
				Index: uint32(j + 1),
				Line:  af.Line,
			}
			if af.Repeated {
				f.Cardinality = Repeated
			}
			if af.Presence == ast.PresenceRequired {
				f.Presence = Required
			}
			m.Fields = append(m.Fields, f)
			m.byName[f.Name] = f
		}
	}

	return reg, nil
}

func resolveType(reg *Registry, af *ast.Field) (FieldType, error) {
	if k, ok := Builtin(af.Type); ok {
		return FieldType{Kind: k}, nil
	}
	if m, ok := reg.byName[af.Type]; ok {
		return FieldType{Kind: KindMessage, Message: m}, nil
	}
	return FieldType{}, errors.Semantic(af.Line, "field %q references undeclared type %q", af.Name, af.Type)
}
