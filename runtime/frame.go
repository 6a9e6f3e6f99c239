package runtime

// Suspend records the caller's code and program counter, restored when
// a frame returns. The pc points at the CALL instruction itself; the
// machine's post-step advance moves past it after the restore.
type Suspend struct {
	code Code
	pc   int
}

// Frame is one activation record. base marks the operand-stack index
// where this activation's values begin; popping below it is fatal.
// handlers holds the effect handlers registered while this frame is
// live, at most one per name, dropped when the frame is popped.
type Frame struct {
	suspend  *Suspend
	base     int
	captures []Data
	handlers map[Name]Closure
}

func newFrame(suspend *Suspend, base int, captures []Data) Frame {
	return Frame{suspend: suspend, base: base, captures: captures}
}

// registerHandler binds fun under name, overwriting any earlier
// binding for the same name in this frame.
func (fr *Frame) registerHandler(name Name, fun Closure) {
	if fr.handlers == nil {
		fr.handlers = make(map[Name]Closure)
	}
	fr.handlers[name] = fun
}
