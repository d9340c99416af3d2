// Package sgeproto is a schema-driven binary serialization engine.
//
// A schema declares message types with numbered, typed fields. Records
// built from dynamic values are encoded into compact tagged binary code,
// optionally wrapped in a checksummed frame, and decoded back.
//
// # Architecture Overview
//
//	sgeproto/
//	├── engine/          Facade: one registry, encode/decode/pack/unpack
//	├── schema/          Schema text to an immutable Registry
//	├── value/           Dynamic values (records, arrays, scalars)
//	├── codec/           Encoder and Decoder for the tagged code format
//	├── wire/            Varints, field tags and byte buffers
//	├── frame/           Frames with zero-byte packing and xxhash checksums
//	├── errors/          Structured errors with phase, kind and field path
//	├── config/          YAML configuration and environment overrides
//	├── metrics/         Prometheus collector fed by engine observers
//	└── cmd/sgeproto/    Command line tool
//
// # Quick Start
//
//	eng := engine.New()
//	defer eng.Destroy()
//
//	if err := eng.ParseFile("person.sge"); err != nil {
//	    log.Fatal(err)
//	}
//
//	code, err := eng.Encode("Person", value.Record(map[string]value.Value{
//	    "name": value.Str("Alice"),
//	}))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	framed, _ := eng.Pack(code)
//	code, err = eng.Unpack(framed)
//	rec, n, err := eng.Decode(code)
//
// # Schema Language
//
//	# comment
//	Person 1 {
//	    name: string required;
//	    id: int32[];
//	    phone: Phone[];
//	}
//
// Field types are int32, int64, uint32, uint64, float, double, bool,
// string, bytes or another message name; integer and number are aliases
// for int64 and double. A [] suffix or the repeated keyword makes a list.
// Message ids may be omitted and are then assigned from the lowest unused
// number.
//
// # Errors
//
// Every failure is an *errors.Error. Use errors.Is with the sentinels in
// the errors package, or inspect Kind, Class and Path directly:
//
//	var se *errors.Error
//	if stderrors.As(err, &se) && se.Kind == errors.KindTypeMismatch {
//	    fmt.Println("bad field:", se.PathString())
//	}
package sgeproto
