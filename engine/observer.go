package engine

import "time"

// Op names an engine operation reported to an Observer.
type Op string

const (
	OpParse  Op = "parse"
	OpEncode Op = "encode"
	OpDecode Op = "decode"
	OpPack   Op = "pack"
	OpUnpack Op = "unpack"
)

// Event describes one completed operation.
type Event struct {
	Op       Op
	Type     string // message type; empty for parse, pack, unpack and failed decodes
	Bytes    int    // output length for encode and pack, input length otherwise
	Duration time.Duration
	Err      error
}

// Observer receives an Event after every parse, encode, decode, pack and
// unpack. Observe is called synchronously and must be safe for concurrent use.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

type observers []Observer

func (o observers) Observe(e Event) {
	for _, obs := range o {
		obs.Observe(e)
	}
}
