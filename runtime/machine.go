package runtime

import (
	"github.com/tliron/commonlog"
)

// Machine drives fibers through their instruction streams. A machine
// runs exactly one fiber at a time; "concurrency" exists only as
// suspended fibers held by continuation values. The trace flags gate a
// purely observational logging surface that never drives engine state.
type Machine struct {
	fiber *Fiber
	log   commonlog.Logger

	TraceValues    bool
	TraceFrames    bool
	TraceExecution bool
}

func NewDebugMachine() *Machine {
	m := new(Machine)
	m.log = commonlog.GetLogger("effective.runtime")
	m.TraceValues = true
	m.TraceFrames = true
	m.TraceExecution = true
	return m
}

func NewReleaseMachine() *Machine {
	m := new(Machine)
	m.log = commonlog.GetLogger("effective.runtime")
	m.TraceValues = false
	m.TraceFrames = false
	m.TraceExecution = false
	return m
}

// RunClosure instantiates a fiber from fun and runs it to completion.
func (m *Machine) RunClosure(fun Closure) ([]Data, error) {
	return m.Run(NewFiber(fun))
}

// Run drives fiber until it finishes or faults. On success the values
// remaining on the final fiber's operand stack are returned; on
// failure the *Effect that halted execution. RAISE and CALL on a
// continuation switch which fiber is current, so the final fiber need
// not be the one passed in.
func (m *Machine) Run(fiber *Fiber) ([]Data, error) {
	m.fiber = fiber

	for !m.fiber.Done() {
		if m.TraceValues {
			m.log.Debugf("values: %s", FormatStack(m.fiber.stack.datum))
		}
		if m.TraceFrames {
			m.log.Debugf("frames: depth %d, base %d", m.fiber.Depth(), m.fiber.currentFrame().base)
		}

		op := m.fiber.code[m.fiber.pc]
		if m.TraceExecution {
			m.log.Debugf("%04d %s", m.fiber.pc, op)
		}

		switch op.Kind {
		case CONSTANT:
			m.fiber.push(op.Const)

		case ADD:
			if eff := m.binaryNumeric(addOp); eff != nil {
				return nil, eff
			}

		case DIV:
			if eff := m.binaryNumeric(divOp); eff != nil {
				return nil, eff
			}

		case GET:
			if eff := m.fiber.get(op.Name); eff != nil {
				return nil, eff
			}

		case SET:
			if eff := m.fiber.set(op.Name); eff != nil {
				return nil, eff
			}

		case HANDLER:
			d, eff := m.fiber.pop()
			if eff != nil {
				return nil, eff
			}
			fun, ok := d.(Closure)
			if !ok {
				m.fiber.kill()
				return nil, typeMismatch("HANDLER expects a closure")
			}
			m.fiber.currentFrame().registerHandler(op.Name, fun)

		case RAISE:
			fun, found := m.fiber.resolveHandler(op.Name)
			// the payload comes off the stack whether or not a
			// handler exists
			payload, eff := m.fiber.pop()
			if eff != nil {
				return nil, eff
			}
			if !found {
				m.fiber.kill()
				return nil, virtual(op.Name, payload)
			}
			m.switchFiber(newHandlerFiber(fun, m.fiber), payload)
			// the handler fiber starts at its first instruction
			continue

		case CALL:
			arg, eff := m.fiber.pop()
			if eff != nil {
				return nil, eff
			}
			callee, eff := m.fiber.pop()
			if eff != nil {
				return nil, eff
			}
			switch callee := callee.(type) {
			case Closure:
				m.fiber.call(callee)
				m.fiber.push(arg)
				// the callee starts at its first instruction
				continue
			case *Continuation:
				resumed, eff := callee.consume()
				if eff != nil {
					m.fiber.kill()
					return nil, eff
				}
				m.switchFiber(resumed, arg)
				// fall through to the advance below, which steps the
				// resumed fiber past the instruction it suspended on
			default:
				m.fiber.kill()
				return nil, typeMismatch("CALL expects a closure or continuation")
			}

		case POP:
			for i := 0; i < op.Count; i++ {
				if _, eff := m.fiber.pop(); eff != nil {
					return nil, eff
				}
			}

		case CAPTURE:
			if eff := m.fiber.capture(); eff != nil {
				return nil, eff
			}

		case RETURN:
			if eff := m.fiber.ret(op.Count); eff != nil {
				return nil, eff
			}

		default:
			m.fiber.kill()
			return nil, fatal("unknown opcode")
		}

		m.fiber.pc++
	}

	return m.fiber.Values(), nil
}

// switchFiber is the single symmetric control-transfer primitive. The
// running fiber is displaced into a fresh continuation, the target
// becomes current, and the continuation plus the transferred payload
// are pushed onto the target's operand stack in that order. The
// displaced fiber keeps its state exactly as it was, its pc still on
// the instruction that caused the switch.
func (m *Machine) switchFiber(target *Fiber, payload Data) {
	displaced := m.fiber
	m.fiber = target
	target.push(&Continuation{fiber: displaced})
	target.push(payload)
}

// binaryNumeric pops two numbers, the top operand first, and pushes
// the result of binop applied in that pop order.
func (m *Machine) binaryNumeric(binop func(a, b float64) (float64, *Effect)) *Effect {
	a, eff := m.fiber.pop()
	if eff != nil {
		return eff
	}
	b, eff := m.fiber.pop()
	if eff != nil {
		return eff
	}
	fa, aOk := a.(float64)
	fb, bOk := b.(float64)
	if !aOk || !bOk {
		m.fiber.kill()
		return typeMismatch("arithmetic on a non-number")
	}
	out, eff := binop(fa, fb)
	if eff != nil {
		m.fiber.kill()
		return eff
	}
	m.fiber.push(out)
	return nil
}

func addOp(a, b float64) (float64, *Effect) {
	return a + b, nil
}

// divOp divides the first-popped operand by the second. The zero check
// applies to the first-popped operand, the numerator.
func divOp(a, b float64) (float64, *Effect) {
	if a == 0.0 {
		return 0, zeroDivision()
	}
	return a / b, nil
}
