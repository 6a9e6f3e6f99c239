// Package image serializes programs to a portable binary form, so a
// compiled instruction stream can be produced in one process and
// executed in another.
package image

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/slightknack/effective/runtime"
)

// cborEncMode uses canonical mode for deterministic encoding.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("image: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

type wireOp struct {
	Kind  byte      `cbor:"k"`
	Count int       `cbor:"c,omitempty"`
	Name  int       `cbor:"n,omitempty"`
	Const *wireData `cbor:"d,omitempty"`
}

// wireData carries exactly one of its fields, mirroring the runtime
// value union. Continuations have no wire form: a suspended fiber is
// tied to the machine that suspended it.
type wireData struct {
	Num *float64 `cbor:"f,omitempty"`
	Raw *wireRaw `cbor:"r,omitempty"`
	Fun *wireFun `cbor:"fn,omitempty"`
}

type wireRaw struct {
	Ops         []wireOp `cbor:"o"`
	NumCaptures int      `cbor:"c"`
}

type wireFun struct {
	Ops      []wireOp   `cbor:"o"`
	Captures []wireData `cbor:"v"`
}

// MarshalProgram serializes a program entry closure to CBOR bytes.
func MarshalProgram(fun runtime.Closure) ([]byte, error) {
	w, err := encodeFun(fun)
	if err != nil {
		return nil, err
	}
	return cborEncMode.Marshal(w)
}

// UnmarshalProgram deserializes a program entry closure from CBOR
// bytes.
func UnmarshalProgram(data []byte) (runtime.Closure, error) {
	var w wireFun
	if err := cbor.Unmarshal(data, &w); err != nil {
		return runtime.Closure{}, fmt.Errorf("image: unmarshal program: %w", err)
	}
	return decodeFun(w)
}

func encodeFun(fun runtime.Closure) (wireFun, error) {
	ops, err := encodeCode(fun.Code)
	if err != nil {
		return wireFun{}, err
	}
	captures := make([]wireData, len(fun.Captures))
	for i, c := range fun.Captures {
		d, err := encodeData(c)
		if err != nil {
			return wireFun{}, err
		}
		captures[i] = d
	}
	return wireFun{Ops: ops, Captures: captures}, nil
}

func encodeCode(code runtime.Code) ([]wireOp, error) {
	ops := make([]wireOp, len(code))
	for i, op := range code {
		w := wireOp{Kind: op.Kind, Count: op.Count, Name: int(op.Name)}
		if op.Kind == runtime.CONSTANT {
			d, err := encodeData(op.Const)
			if err != nil {
				return nil, err
			}
			w.Const = &d
		}
		ops[i] = w
	}
	return ops, nil
}

func encodeData(d runtime.Data) (wireData, error) {
	switch d := d.(type) {
	case float64:
		num := d
		return wireData{Num: &num}, nil
	case runtime.RawClosure:
		ops, err := encodeCode(d.Code)
		if err != nil {
			return wireData{}, err
		}
		return wireData{Raw: &wireRaw{Ops: ops, NumCaptures: d.NumCaptures}}, nil
	case runtime.Closure:
		fun, err := encodeFun(d)
		if err != nil {
			return wireData{}, err
		}
		return wireData{Fun: &fun}, nil
	default:
		return wireData{}, fmt.Errorf("image: value %s is not serializable", runtime.FormatData(d))
	}
}

func decodeFun(w wireFun) (runtime.Closure, error) {
	code, err := decodeCode(w.Ops)
	if err != nil {
		return runtime.Closure{}, err
	}
	var captures []runtime.Data
	if len(w.Captures) > 0 {
		captures = make([]runtime.Data, len(w.Captures))
		for i, c := range w.Captures {
			d, err := decodeData(c)
			if err != nil {
				return runtime.Closure{}, err
			}
			captures[i] = d
		}
	}
	return runtime.NewClosure(code, captures), nil
}

func decodeCode(ops []wireOp) (runtime.Code, error) {
	code := make(runtime.Code, len(ops))
	for i, w := range ops {
		if w.Count < 0 {
			return nil, fmt.Errorf("image: negative count %d at offset %d", w.Count, i)
		}
		op := runtime.Op{Kind: w.Kind, Count: w.Count, Name: runtime.Name(w.Name)}
		if w.Kind == runtime.CONSTANT {
			if w.Const == nil {
				return nil, fmt.Errorf("image: CONSTANT at offset %d has no operand", i)
			}
			d, err := decodeData(*w.Const)
			if err != nil {
				return nil, err
			}
			op.Const = d
		}
		code[i] = op
	}
	return code, nil
}

func decodeData(w wireData) (runtime.Data, error) {
	switch {
	case w.Num != nil:
		return *w.Num, nil
	case w.Raw != nil:
		if w.Raw.NumCaptures < 0 {
			return nil, fmt.Errorf("image: negative capture count %d", w.Raw.NumCaptures)
		}
		code, err := decodeCode(w.Raw.Ops)
		if err != nil {
			return nil, err
		}
		return runtime.RawClosure{Code: code, NumCaptures: w.Raw.NumCaptures}, nil
	case w.Fun != nil:
		return decodeFun(*w.Fun)
	default:
		return nil, fmt.Errorf("image: empty value in program image")
	}
}
