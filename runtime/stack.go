package runtime

// Stack is the per-fiber operand and frame state. It belongs
// exclusively to one fiber; the only cross-fiber access is the
// read-only handler walk during raise resolution.
type Stack struct {
	datum  []Data
	frames []Frame
}

// newStack starts a stack with a single base frame holding the entry
// closure's captures. The base frame has no suspend: returning from it
// finishes the fiber.
func newStack(captures []Data) Stack {
	return Stack{
		datum:  make([]Data, 0),
		frames: []Frame{newFrame(nil, 0, captures)},
	}
}
