package main

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/sgeproto/codec"
	"github.com/wippyai/sgeproto/value"
)

// readDocuments parses every YAML (or JSON) document in data into a Value.
func readDocuments(data []byte) ([]value.Value, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var docs []value.Value
	for i := 1; ; i++ {
		var doc any
		err := dec.Decode(&doc)
		if err == io.EOF {
			return docs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		v, err := value.FromGo(doc)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		docs = append(docs, v)
	}
}

// writeMessages prints one YAML document per message, headed by its type.
func writeMessages(w io.Writer, msgs []*codec.Message) error {
	enc := newYAMLEncoder(w)
	for _, msg := range msgs {
		doc := &yaml.Node{
			Kind:        yaml.DocumentNode,
			HeadComment: fmt.Sprintf("%s (id %d, %d bytes)", msg.Type, msg.ID, msg.Consumed),
			Content:     []*yaml.Node{toNode(msg.Record)},
		}
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("write yaml: %w", err)
		}
	}
	return enc.Close()
}

func newYAMLEncoder(w io.Writer) *yaml.Encoder {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	return enc
}

// toNode renders v with explicit tags so bytes and unsigned values survive
// a trip back through readDocuments.
func toNode(v value.Value) *yaml.Node {
	scalar := func(tag, s string) *yaml.Node {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: s}
	}
	switch v.Kind() {
	case value.KindBool:
		b, _ := v.AsBool()
		return scalar("!!bool", strconv.FormatBool(b))
	case value.KindInt:
		i, _ := v.AsInt()
		return scalar("!!int", strconv.FormatInt(i, 10))
	case value.KindUInt:
		u, _ := v.AsUInt()
		return scalar("!!int", strconv.FormatUint(u, 10))
	case value.KindDouble:
		f, _ := v.AsDouble()
		return scalar("!!float", formatFloat(f))
	case value.KindStr:
		s, _ := v.AsStr()
		return scalar("!!str", s)
	case value.KindBytes:
		b, _ := v.AsBytes()
		return scalar("!!binary", base64.StdEncoding.EncodeToString(b))
	case value.KindArray:
		items, _ := v.Items()
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range items {
			n.Content = append(n.Content, toNode(item))
		}
		return n
	case value.KindRecord:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range v.Keys() {
			field, _ := v.Get(k)
			n.Content = append(n.Content, scalar("!!str", k), toNode(field))
		}
		return n
	}
	return scalar("!!null", "null")
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		s += ".0"
	}
	return s
}
