// Package engine ties the schema parser, codec and framer together behind
// one handle.
//
// An Engine holds at most one schema registry:
//
//	e := engine.New(engine.WithStrictDecode(true))
//	if err := e.ParseFile("person.sge"); err != nil {
//	    return err
//	}
//	code, err := e.Encode("Person", rec)
//	framed, err := e.Pack(code)
//
// # Lifecycle
//
// Until the first successful Parse or ParseFile, Encode, Decode and Registry
// fail with missing_schema. Destroy drops the registry; afterwards every
// operation except Parse and ParseFile fails with not_initialized, and a
// later successful parse makes the engine usable again. A failed parse never
// disturbs the registry already loaded.
//
// Pack and Unpack do not need a schema.
//
// # Concurrency
//
// Parsing and Destroy take an exclusive lock only to swap the registry.
// Registries are immutable, so any number of Encode and Decode calls run in
// parallel.
//
// # Observers
//
// WithObserver attaches an Observer that is told about every operation,
// which is how the metrics package records counters without the engine
// depending on it.
package engine
