package runtime

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Fiber is one suspendable execution context: an operand/frame stack,
// the code it is executing, and a program counter. The parent link is
// only ever walked read-only during handler resolution; a parent is
// never executed through.
type Fiber struct {
	parent *Fiber
	stack  Stack
	code   Code
	pc     int
}

// NewFiber builds a fiber around a closure: empty operand stack, one
// base frame holding the closure's captures, pc at the first
// instruction.
func NewFiber(fun Closure) *Fiber {
	return &Fiber{
		stack: newStack(slices.Clone(fun.Captures)),
		code:  fun.Code,
		pc:    0,
	}
}

// newHandlerFiber builds the fiber a raised effect runs in. Its parent
// is the raising fiber, so handlers registered further out remain
// visible to raises inside the handler.
func newHandlerFiber(fun Closure, parent *Fiber) *Fiber {
	fib := NewFiber(fun)
	fib.parent = parent
	return fib
}

func (f *Fiber) currentFrame() *Frame {
	return &f.stack.frames[len(f.stack.frames)-1]
}

func (f *Fiber) push(d Data) {
	f.stack.datum = append(f.stack.datum, d)
}

// pop removes the top operand. Popping below the innermost frame's
// base index never reads into a caller's data; it kills the fiber
// instead.
func (f *Fiber) pop() (Data, *Effect) {
	top := len(f.stack.datum)
	if top <= f.currentFrame().base {
		f.kill()
		return nil, fatal("operand stack underflow")
	}
	d := f.stack.datum[top-1]
	f.stack.datum = f.stack.datum[:top-1]
	return d, nil
}

// kill forces the fiber into its terminal state.
func (f *Fiber) kill() {
	f.pc = len(f.code)
}

// Done reports whether the fiber has run past the end of its code.
func (f *Fiber) Done() bool {
	return f.pc >= len(f.code)
}

// resolveHandler searches the fiber's frames innermost to outermost,
// then each ancestor fiber's frames in turn, for the closure
// registered under name. Ancestors are read, never mutated or resumed.
func (f *Fiber) resolveHandler(name Name) (Closure, bool) {
	for fib := f; fib != nil; fib = fib.parent {
		for i := len(fib.stack.frames) - 1; i >= 0; i-- {
			if fun, ok := fib.stack.frames[i].handlers[name]; ok {
				return fun, true
			}
		}
	}
	return Closure{}, false
}

// call pushes an activation for fun and jumps to its code. The suspend
// records the pc of the CALL instruction; RETURN restores it and the
// post-step advance resumes just past the call site.
func (f *Fiber) call(fun Closure) {
	suspend := &Suspend{code: f.code, pc: f.pc}
	frame := newFrame(suspend, len(f.stack.datum), slices.Clone(fun.Captures))
	f.stack.frames = append(f.stack.frames, frame)
	f.code = fun.Code
	f.pc = 0
}

// ret pops count return values, discards everything else above the
// frame's base, removes the frame and restores the caller. Returning
// from the outermost frame finishes the fiber with the return values
// left on the stack.
func (f *Fiber) ret(count int) *Effect {
	if count < 0 {
		f.kill()
		return fatal("RETURN with a negative count")
	}
	vals := make([]Data, count)
	for i := count - 1; i >= 0; i-- {
		d, eff := f.pop()
		if eff != nil {
			return eff
		}
		vals[i] = d
	}

	frame := f.currentFrame()
	f.stack.datum = f.stack.datum[:frame.base]
	if frame.suspend == nil {
		f.stack.datum = append(f.stack.datum, vals...)
		f.kill()
		return nil
	}

	f.code = frame.suspend.code
	f.pc = frame.suspend.pc
	f.stack.frames = f.stack.frames[:len(f.stack.frames)-1]
	f.stack.datum = append(f.stack.datum, vals...)
	return nil
}

// capture completes a raw closure: it pops the template, slices the
// declared number of captured values off the stack and pushes the
// resulting callable closure. The snapshot preserves push order, so
// the earliest-pushed capture gets slot 0.
func (f *Fiber) capture() *Effect {
	d, eff := f.pop()
	if eff != nil {
		return eff
	}
	template, ok := d.(RawClosure)
	if !ok {
		f.kill()
		return typeMismatch("CAPTURE expects a raw closure")
	}
	if template.NumCaptures < 0 {
		f.kill()
		return fatal("CAPTURE with a negative capture count")
	}

	top := len(f.stack.datum)
	if top-template.NumCaptures < f.currentFrame().base {
		f.kill()
		return fatal("CAPTURE reaches below the frame base")
	}
	captured := slices.Clone(f.stack.datum[top-template.NumCaptures:])
	f.stack.datum = f.stack.datum[:top-template.NumCaptures]
	f.push(Closure{Code: template.Code, Captures: captured})
	return nil
}

// get pushes the capture bound to name in the innermost frame.
func (f *Fiber) get(name Name) *Effect {
	frame := f.currentFrame()
	if int(name) < 0 || int(name) >= len(frame.captures) {
		f.kill()
		return fatal("GET of an unbound capture slot")
	}
	f.push(frame.captures[name])
	return nil
}

// set rebinds a capture slot for the remainder of the frame's life.
// The frame owns its snapshot, so the closure and sibling activations
// are unaffected.
func (f *Fiber) set(name Name) *Effect {
	d, eff := f.pop()
	if eff != nil {
		return eff
	}
	frame := f.currentFrame()
	if int(name) < 0 || int(name) >= len(frame.captures) {
		f.kill()
		return fatal("SET of an unbound capture slot")
	}
	frame.captures[name] = d
	return nil
}

// Values returns a copy of the operand stack, bottom to top. Part of
// the read-only diagnostic surface.
func (f *Fiber) Values() []Data {
	return slices.Clone(f.stack.datum)
}

// Depth returns the number of live frames.
func (f *Fiber) Depth() int {
	return len(f.stack.frames)
}

// PC returns the current program counter.
func (f *Fiber) PC() int {
	return f.pc
}

// HandlerNames lists every effect name with a handler visible from
// this fiber, across its own frames and its ancestors, sorted.
func (f *Fiber) HandlerNames() []Name {
	seen := make(map[Name]struct{})
	for fib := f; fib != nil; fib = fib.parent {
		for i := range fib.stack.frames {
			for name := range fib.stack.frames[i].handlers {
				seen[name] = struct{}{}
			}
		}
	}
	names := maps.Keys(seen)
	slices.Sort(names)
	return names
}
