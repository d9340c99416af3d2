package engine

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/sgeproto/codec"
	"github.com/wippyai/sgeproto/errors"
	"github.com/wippyai/sgeproto/frame"
	"github.com/wippyai/sgeproto/schema"
	"github.com/wippyai/sgeproto/value"
)

// Engine holds one schema registry and the codec built over it.
// All methods are safe for concurrent use.
type Engine struct {
	mu  sync.RWMutex
	reg *schema.Registry
	enc *codec.Encoder
	dec *codec.Decoder

	destroyed atomic.Bool
	packer    *frame.Packer
	opts      options
	log       *zap.Logger
}

// New returns an engine with no schema loaded.
func New(opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine{
		packer: &frame.Packer{Limits: o.limits, DisableZeroPack: !o.zeroPack},
		opts:   o,
		log:    o.logger,
	}
}

// ParseFile loads a schema file and replaces the current registry. On
// failure the previous registry stays in effect. A successful call after
// Destroy makes the engine usable again.
func (e *Engine) ParseFile(path string) error {
	start := time.Now()
	reg, err := schema.ParseFile(path)
	e.observe(OpParse, "", 0, start, err)
	if err != nil {
		e.log.Debug("schema load failed", zap.String("path", path), zap.Error(err))
		return err
	}
	e.install(reg)
	e.log.Debug("schema loaded", zap.String("path", path), zap.Int("messages", reg.Len()))
	return nil
}

// Parse loads schema source text. It behaves like ParseFile.
func (e *Engine) Parse(source string) error {
	start := time.Now()
	reg, err := schema.Parse(source)
	e.observe(OpParse, "", len(source), start, err)
	if err != nil {
		e.log.Debug("schema parse failed", zap.Error(err))
		return err
	}
	e.install(reg)
	e.log.Debug("schema parsed", zap.Int("messages", reg.Len()))
	return nil
}

func (e *Engine) install(reg *schema.Registry) {
	enc := codec.NewEncoder(reg)
	dec := codec.NewDecoder(reg)
	dec.Strict = e.opts.strict
	if e.opts.maxDepth > 0 {
		enc.MaxDepth = e.opts.maxDepth
		dec.MaxDepth = e.opts.maxDepth
	}

	e.mu.Lock()
	e.reg = reg
	e.enc = enc
	e.dec = dec
	e.destroyed.Store(false)
	e.mu.Unlock()
}

// Encode serializes v as the message type typeName.
func (e *Engine) Encode(typeName string, v value.Value) ([]byte, error) {
	start := time.Now()
	e.mu.RLock()
	st, err := e.ready(errors.PhaseEncode)
	e.mu.RUnlock()

	var out []byte
	if err == nil {
		out, err = st.enc.Encode(typeName, v)
	}
	e.observe(OpEncode, typeName, len(out), start, err)
	if err != nil {
		return nil, err
	}
	e.log.Debug("encoded", zap.String("type", typeName), zap.Int("bytes", len(out)))
	return out, nil
}

// Decode reads one message from the start of buf and returns its record
// and the number of bytes consumed.
func (e *Engine) Decode(buf []byte) (value.Value, int, error) {
	msg, err := e.DecodeMessage(buf)
	if err != nil {
		return value.Null(), 0, err
	}
	return msg.Record, msg.Consumed, nil
}

// DecodeMessage is Decode with the message type and id.
func (e *Engine) DecodeMessage(buf []byte) (*codec.Message, error) {
	start := time.Now()
	e.mu.RLock()
	st, err := e.ready(errors.PhaseDecode)
	e.mu.RUnlock()

	var msg *codec.Message
	if err == nil {
		msg, err = st.dec.Decode(buf)
	}
	typeName := ""
	if msg != nil {
		typeName = msg.Type
	}
	e.observe(OpDecode, typeName, len(buf), start, err)
	if err != nil {
		return nil, err
	}
	e.log.Debug("decoded", zap.String("type", msg.Type), zap.Int("bytes", msg.Consumed))
	return msg, nil
}

// DecodeAll decodes back-to-back messages filling buf.
func (e *Engine) DecodeAll(buf []byte) ([]*codec.Message, error) {
	start := time.Now()
	e.mu.RLock()
	st, err := e.ready(errors.PhaseDecode)
	e.mu.RUnlock()

	var msgs []*codec.Message
	if err == nil {
		msgs, err = st.dec.DecodeAll(buf)
	}
	e.observe(OpDecode, "", len(buf), start, err)
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// Pack frames code for storage or transport. It fails only after Destroy.
func (e *Engine) Pack(b []byte) ([]byte, error) {
	start := time.Now()
	if e.destroyed.Load() {
		err := errors.NotInitialized(errors.PhasePack, "engine")
		e.observe(OpPack, "", 0, start, err)
		return nil, err
	}
	out := e.packer.Pack(b)
	e.observe(OpPack, "", len(out), start, nil)
	return out, nil
}

// Unpack reverses Pack.
func (e *Engine) Unpack(b []byte) ([]byte, error) {
	start := time.Now()
	var out []byte
	var err error
	if e.destroyed.Load() {
		err = errors.NotInitialized(errors.PhaseUnpack, "engine")
	} else {
		out, err = e.packer.Unpack(b)
	}
	e.observe(OpUnpack, "", len(b), start, err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Destroy drops the registry. Every operation except Parse and ParseFile
// then fails with not_initialized. Calling Destroy again has no effect.
func (e *Engine) Destroy() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed.Swap(true) {
		return
	}
	e.reg, e.enc, e.dec = nil, nil, nil
	e.log.Debug("engine destroyed")
}

// Registry returns the loaded registry. Registries are immutable.
func (e *Engine) Registry() (*schema.Registry, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	st, err := e.ready(errors.PhaseEngine)
	if err != nil {
		return nil, err
	}
	return st.reg, nil
}

// Describe writes a listing of the loaded message types to w.
func (e *Engine) Describe(w io.Writer) error {
	reg, err := e.Registry()
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, reg.String()); err != nil {
		return errors.Wrap(errors.PhaseEngine, errors.KindIO, err, "write description")
	}
	return nil
}

// snapshot is the registry state seen by one operation.
type snapshot struct {
	reg *schema.Registry
	enc *codec.Encoder
	dec *codec.Decoder
}

// ready must be called with e.mu held.
func (e *Engine) ready(phase errors.Phase) (snapshot, error) {
	if e.destroyed.Load() {
		return snapshot{}, errors.NotInitialized(phase, "engine")
	}
	if e.reg == nil {
		return snapshot{}, errors.MissingSchema(phase)
	}
	return snapshot{reg: e.reg, enc: e.enc, dec: e.dec}, nil
}

func (e *Engine) observe(op Op, typeName string, n int, start time.Time, err error) {
	if len(e.opts.observers) == 0 {
		return
	}
	e.opts.observers.Observe(Event{
		Op:       op,
		Type:     typeName,
		Bytes:    n,
		Duration: time.Since(start),
		Err:      err,
	})
}
