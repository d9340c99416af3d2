package engine

import (
	"bytes"
	stderrors "errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/sgeproto/config"
	"github.com/wippyai/sgeproto/errors"
	"github.com/wippyai/sgeproto/frame"
	"github.com/wippyai/sgeproto/value"
)

const personSchema = "testdata/person.sge"

func person() value.Value {
	return value.Record(map[string]value.Value{
		"name":  value.Str("Alice"),
		"id":    value.Array(value.Int(10000)),
		"email": value.Str("alice@example.com"),
		"phone": value.Array(
			value.Record(map[string]value.Value{"num": value.Str("123456789"), "type": value.Int(1)}),
			value.Record(map[string]value.Value{"num": value.Str("87654321"), "type": value.Int(2)}),
		),
	})
}

func loaded(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e := New(opts...)
	require.NoError(t, e.ParseFile(personSchema))
	return e
}

func TestPersonRoundTrip(t *testing.T) {
	e := loaded(t)

	code, err := e.Encode("Person", person())
	require.NoError(t, err)

	framed, err := e.Pack(code)
	require.NoError(t, err)

	unpacked, err := e.Unpack(framed)
	require.NoError(t, err)
	assert.Equal(t, code, unpacked)

	rec, n, err := e.Decode(unpacked)
	require.NoError(t, err)
	assert.Equal(t, len(code), n)
	assert.True(t, rec.Equal(person()), "decoded %s", rec)

	msg, err := e.DecodeMessage(code)
	require.NoError(t, err)
	assert.Equal(t, "Person", msg.Type)
	assert.Equal(t, uint32(1), msg.ID)
}

func TestAddressBook(t *testing.T) {
	e := loaded(t)
	book := value.Record(map[string]value.Value{
		"person": value.Array(person(), value.Record(map[string]value.Value{"name": value.Str("Bob")})),
	})

	code, err := e.Encode("AddressBook", book)
	require.NoError(t, err)

	got, _, err := e.Decode(code)
	require.NoError(t, err)
	assert.True(t, got.Equal(book), "decoded %s", got)
}

func TestDecodeAll(t *testing.T) {
	e := loaded(t)
	a, err := e.Encode("Person", person())
	require.NoError(t, err)
	b, err := e.Encode("Phone", value.Record(map[string]value.Value{"num": value.Str("1")}))
	require.NoError(t, err)

	msgs, err := e.DecodeAll(append(append([]byte(nil), a...), b...))
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Person", msgs[0].Type)
	assert.Equal(t, "Phone", msgs[1].Type)
}

func TestEncodeErrors(t *testing.T) {
	e := loaded(t)

	tests := []struct {
		name     string
		typeName string
		v        value.Value
		target   error
		msg      string
	}{
		{
			name:     "unknown type",
			typeName: "Nobody",
			v:        person(),
			target:   errors.ErrUnknownMessageType,
		},
		{
			name:     "type mismatch in nested list",
			typeName: "Person",
			v: value.Record(map[string]value.Value{
				"name":  value.Str("Alice"),
				"phone": value.Array(value.Record(map[string]value.Value{"num": value.Str("1"), "type": value.Str("notanumber")})),
			}),
			target: errors.ErrFieldTypeMismatch,
			msg:    "[encode] type_mismatch in Person at phone[0].type: expected int32, got string",
		},
		{
			name:     "missing required",
			typeName: "Person",
			v:        value.Record(map[string]value.Value{"email": value.Str("x")}),
			target:   errors.ErrMissingRequiredField,
		},
		{
			name:     "unknown field",
			typeName: "Phone",
			v:        value.Record(map[string]value.Value{"number": value.Str("1")}),
			target:   errors.ErrFieldUnknown,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := e.Encode(tt.typeName, tt.v)
			require.Error(t, err)
			assert.Nil(t, out)
			assert.True(t, stderrors.Is(err, tt.target), "got %v", err)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, err.Error())
			}
		})
	}
}

func TestStrictDecode(t *testing.T) {
	writer := New()
	require.NoError(t, writer.Parse("Phone 2 { num: string; type: int32; extra: string; }"))
	code, err := writer.Encode("Phone", value.Record(map[string]value.Value{
		"num":   value.Str("1"),
		"extra": value.Str("ignored"),
	}))
	require.NoError(t, err)

	tolerant := New()
	require.NoError(t, tolerant.Parse("Phone 2 { num: string; type: int32; }"))
	rec, _, err := tolerant.Decode(code)
	require.NoError(t, err)
	assert.True(t, rec.Equal(value.Record(map[string]value.Value{"num": value.Str("1")})))

	strict := New(WithStrictDecode(true))
	require.NoError(t, strict.Parse("Phone 2 { num: string; type: int32; }"))
	_, _, err = strict.Decode(code)
	assert.True(t, stderrors.Is(err, errors.ErrUnknownFieldTag), "got %v", err)
}

func TestMaxDepth(t *testing.T) {
	v := value.Record(map[string]value.Value{"v": value.Int(1)})
	for i := 0; i < 3; i++ {
		v = value.Record(map[string]value.Value{"child": v})
	}

	e := New(WithMaxDepth(2))
	require.NoError(t, e.Parse("Node 1 { child: Node; v: int32; }"))
	_, err := e.Encode("Node", v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nesting deeper than 2")

	wide := New()
	require.NoError(t, wide.Parse("Node 1 { child: Node; v: int32; }"))
	code, err := wide.Encode("Node", v)
	require.NoError(t, err)
	_, _, err = e.Decode(code)
	assert.True(t, stderrors.Is(err, errors.ErrInvalidData), "got %v", err)
}

func TestLifecycle(t *testing.T) {
	t.Run("missing schema", func(t *testing.T) {
		e := New()

		_, err := e.Encode("Person", person())
		assert.True(t, stderrors.Is(err, errors.ErrMissingSchema))
		_, _, err = e.Decode([]byte{1, 1, 0})
		assert.True(t, stderrors.Is(err, errors.ErrMissingSchema))
		_, err = e.Registry()
		assert.True(t, stderrors.Is(err, errors.ErrMissingSchema))
		assert.Equal(t, errors.ClassState, err.(*errors.Error).Class())

		framed, err := e.Pack([]byte("x"))
		require.NoError(t, err, "pack needs no schema")
		_, err = e.Unpack(framed)
		require.NoError(t, err)
	})

	t.Run("destroy", func(t *testing.T) {
		e := loaded(t)
		code, err := e.Encode("Person", person())
		require.NoError(t, err)

		e.Destroy()
		e.Destroy()

		_, err = e.Encode("Person", person())
		assert.True(t, stderrors.Is(err, errors.ErrEngineNotInitialized), "encode: %v", err)
		_, _, err = e.Decode(code)
		assert.True(t, stderrors.Is(err, errors.ErrEngineNotInitialized), "decode: %v", err)
		_, err = e.Pack(code)
		assert.True(t, stderrors.Is(err, errors.ErrEngineNotInitialized), "pack: %v", err)
		_, err = e.Unpack(frame.Pack(code))
		assert.True(t, stderrors.Is(err, errors.ErrEngineNotInitialized), "unpack: %v", err)
		_, err = e.Registry()
		assert.True(t, stderrors.Is(err, errors.ErrEngineNotInitialized), "registry: %v", err)
		assert.Error(t, e.Describe(&bytes.Buffer{}))

		require.NoError(t, e.ParseFile(personSchema))
		rec, _, err := e.Decode(code)
		require.NoError(t, err)
		assert.True(t, rec.Equal(person()))
	})

	t.Run("destroy before parse", func(t *testing.T) {
		e := New()
		e.Destroy()
		_, err := e.Encode("Person", person())
		assert.True(t, stderrors.Is(err, errors.ErrEngineNotInitialized))
	})

	t.Run("failed parse keeps registry", func(t *testing.T) {
		e := loaded(t)

		err := e.Parse("Person { name string }")
		assert.True(t, stderrors.Is(err, errors.ErrSchemaSyntax), "got %v", err)
		err = e.Parse("A { x: Missing; }")
		assert.True(t, stderrors.Is(err, errors.ErrSchemaSemantic), "got %v", err)
		err = e.ParseFile(filepath.Join(t.TempDir(), "absent.sge"))
		assert.True(t, stderrors.Is(err, errors.ErrNotFound), "got %v", err)
		assert.True(t, stderrors.Is(err, os.ErrNotExist))

		reg, err := e.Registry()
		require.NoError(t, err)
		assert.Equal(t, 3, reg.Len())
		_, err = e.Encode("Person", person())
		assert.NoError(t, err)
	})

	t.Run("reparse replaces registry", func(t *testing.T) {
		e := loaded(t)
		require.NoError(t, e.Parse("Point { x: double; y: double; }"))

		_, err := e.Encode("Person", person())
		assert.True(t, stderrors.Is(err, errors.ErrUnknownMessageType))
		_, err = e.Encode("Point", value.Record(map[string]value.Value{"x": value.Double(1.5)}))
		assert.NoError(t, err)
	})
}

func TestDescribe(t *testing.T) {
	e := loaded(t)
	var buf bytes.Buffer
	require.NoError(t, e.Describe(&buf))

	out := buf.String()
	assert.Contains(t, out, "Person (id 1)")
	assert.Contains(t, out, "1 name string required")
	assert.Contains(t, out, "4 phone Phone[]")
	assert.Contains(t, out, "AddressBook (id 3)")
}

func TestFrameOptions(t *testing.T) {
	code := make([]byte, 64)
	code[0] = 1

	packed := New()
	plain := New(WithZeroPack(false))

	a, err := packed.Pack(code)
	require.NoError(t, err)
	b, err := plain.Pack(code)
	require.NoError(t, err)
	assert.Less(t, len(a), len(b))

	out, err := packed.Unpack(b)
	require.NoError(t, err, "unpack accepts raw frames regardless of option")
	assert.Equal(t, code, out)

	small := New(WithFrameLimits(frame.Limits{MaxRawBytes: 16, MaxPayloadBytes: 16}))
	_, err = small.Unpack(b)
	assert.True(t, stderrors.Is(err, errors.ErrFrameCorrupt), "got %v", err)

	ignored := New(WithFrameLimits(frame.Limits{}))
	_, err = ignored.Unpack(b)
	assert.NoError(t, err)
}

func TestWithConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Decode.Strict = true
	cfg.Frame.ZeroPack = false
	cfg.Frame.MaxRawBytes = 8

	e := New(WithConfig(cfg))
	assert.True(t, e.opts.strict)
	assert.True(t, e.packer.DisableZeroPack)
	assert.Equal(t, 8, e.packer.Limits.MaxRawBytes)

	_, err := e.Unpack(frame.Pack(make([]byte, 9)))
	assert.True(t, stderrors.Is(err, errors.ErrFrameCorrupt))
}

func TestObserver(t *testing.T) {
	var mu sync.Mutex
	var events []Event
	obs := ObserverFunc(func(ev Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})

	e := loaded(t, WithObserver(obs))
	code, err := e.Encode("Person", person())
	require.NoError(t, err)
	_, _, err = e.Decode(code)
	require.NoError(t, err)
	_, err = e.Encode("Nobody", person())
	require.Error(t, err)
	framed, err := e.Pack(code)
	require.NoError(t, err)
	_, err = e.Unpack(framed)
	require.NoError(t, err)

	require.Len(t, events, 6)
	assert.Equal(t, OpParse, events[0].Op)
	assert.Equal(t, Event{Op: OpEncode, Type: "Person", Bytes: len(code)}, stripDuration(events[1]))
	assert.Equal(t, Event{Op: OpDecode, Type: "Person", Bytes: len(code)}, stripDuration(events[2]))
	assert.Equal(t, OpEncode, events[3].Op)
	assert.True(t, stderrors.Is(events[3].Err, errors.ErrUnknownMessageType))
	assert.Equal(t, Event{Op: OpPack, Bytes: len(framed)}, stripDuration(events[4]))
	assert.Equal(t, OpUnpack, events[5].Op)
}

func stripDuration(ev Event) Event {
	ev.Duration = 0
	return ev
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	e := loaded(t, WithLogger(zap.New(core)))

	_, err := e.Encode("Person", person())
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("schema loaded").Len())
	encoded := logs.FilterMessage("encoded").All()
	require.Len(t, encoded, 1)
	assert.Equal(t, "Person", encoded[0].ContextMap()["type"])
}

func TestPackageLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	e := New()
	e.Destroy()
	assert.Equal(t, 1, logs.FilterMessage("engine destroyed").Len())
}

func TestConcurrentUse(t *testing.T) {
	e := loaded(t)
	want := person()

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				code, err := e.Encode("Person", want)
				if err != nil {
					errs <- err
					return
				}
				got, _, err := e.Decode(code)
				if err != nil {
					errs <- err
					return
				}
				if !got.Equal(want) {
					errs <- stderrors.New("round trip mismatch")
					return
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 20; j++ {
			if err := e.ParseFile(personSchema); err != nil {
				errs <- err
				return
			}
		}
	}()
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func BenchmarkEncodeDecode(b *testing.B) {
	e := New()
	if err := e.ParseFile(personSchema); err != nil {
		b.Fatal(err)
	}
	v := person()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		code, err := e.Encode("Person", v)
		if err != nil {
			b.Fatal(err)
		}
		if _, _, err := e.Decode(code); err != nil {
			b.Fatal(err)
		}
	}
}
