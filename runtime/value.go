package runtime

import (
	"fmt"
	"strings"
)

// Data is the runtime value union. Numbers are plain float64 values;
// everything else is one of the variants below.
type Data interface{}

// RawClosure pairs code with the count of values it still needs
// captured off the stack before it is callable. It is completed by the
// CAPTURE instruction and is not callable itself.
type RawClosure struct {
	Code        Code
	NumCaptures int
}

// Closure is a callable pairing of code and an immutable snapshot of
// captured values. Frames clone the snapshot at call time, so SET in
// one activation never leaks into another.
type Closure struct {
	Code     Code
	Captures []Data
}

// NewClosure builds a callable program entry point from an instruction
// sequence and its initial capture snapshot.
func NewClosure(code Code, captures []Data) Closure {
	return Closure{Code: code, Captures: captures}
}

// Continuation wraps a suspended fiber as a first-class callable
// value. Resuming it consumes the wrapped fiber; a second resume of
// the same continuation is a fatal failure.
type Continuation struct {
	fiber   *Fiber
	resumed bool
}

// consume takes exclusive ownership of the wrapped fiber, leaving the
// continuation unusable.
func (c *Continuation) consume() (*Fiber, *Effect) {
	if c.resumed || c.fiber == nil {
		return nil, fatal("continuation resumed twice")
	}
	fib := c.fiber
	c.resumed = true
	c.fiber = nil
	return fib, nil
}

// Resumed reports whether the continuation has already been consumed.
func (c *Continuation) Resumed() bool {
	return c.resumed
}

// FormatData renders a value for trace output and the embedding
// harness.
func FormatData(d Data) string {
	switch d := d.(type) {
	case nil:
		return "<nil>"
	case float64:
		return fmt.Sprintf("%v", d)
	case RawClosure:
		return fmt.Sprintf("rawfun(%d ops, needs %d)", len(d.Code), d.NumCaptures)
	case Closure:
		var sb strings.Builder
		fmt.Fprintf(&sb, "closure(%d ops", len(d.Code))
		if len(d.Captures) > 0 {
			sb.WriteString(" <")
			for i, c := range d.Captures {
				if i > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString(FormatData(c))
			}
			sb.WriteString(">")
		}
		sb.WriteString(")")
		return sb.String()
	case *Continuation:
		if d.resumed || d.fiber == nil {
			return "cont(consumed)"
		}
		return fmt.Sprintf("cont(pc %d, depth %d)", d.fiber.pc, len(d.fiber.stack.frames))
	default:
		return fmt.Sprintf("%v", d)
	}
}

// FormatStack renders an operand stack bottom to top, in the trace
// style of the machine.
func FormatStack(datum []Data) string {
	if len(datum) == 0 {
		return "<empty>"
	}
	var sb strings.Builder
	for i, d := range datum {
		if i > 0 {
			sb.WriteString(" ~ ")
		}
		sb.WriteString(FormatData(d))
	}
	return sb.String()
}
