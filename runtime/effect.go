package runtime

import "fmt"

// EffectKind classifies the failures that halt a fiber. None of them
// are recoverable inside the engine; program-level effect handlers are
// a separate mechanism resolved before a Virtual failure is produced.
type EffectKind int

const (
	// EffectFatal marks a violated engine invariant: stack underflow,
	// a malformed frame, or a continuation resumed twice.
	EffectFatal EffectKind = iota
	// EffectTypeMismatch marks an operation applied to the wrong value
	// variant, such as ADD on a closure or CALL on a number.
	EffectTypeMismatch
	// EffectZeroDivision marks a DIV whose numerator operand, the one
	// popped first, was zero.
	EffectZeroDivision
	// EffectVirtual marks a raised effect with no handler registered
	// anywhere in the fiber's ancestry.
	EffectVirtual
)

// Effect is the failure value carried out of a faulted fiber. Virtual
// effects also carry the effect name and the payload that would have
// reached a handler.
type Effect struct {
	Kind    EffectKind
	Name    Name
	Payload Data

	detail string
}

func (e *Effect) Error() string {
	switch e.Kind {
	case EffectFatal:
		if e.detail != "" {
			return fmt.Sprintf("fatal: %s", e.detail)
		}
		return "fatal: engine invariant violated"
	case EffectTypeMismatch:
		if e.detail != "" {
			return fmt.Sprintf("type mismatch: %s", e.detail)
		}
		return "type mismatch"
	case EffectZeroDivision:
		return "division by zero"
	case EffectVirtual:
		return fmt.Sprintf("unhandled effect %d, payload %s", e.Name, FormatData(e.Payload))
	default:
		return fmt.Sprintf("unknown effect kind %d", e.Kind)
	}
}

func fatal(detail string) *Effect {
	return &Effect{Kind: EffectFatal, detail: detail}
}

func typeMismatch(detail string) *Effect {
	return &Effect{Kind: EffectTypeMismatch, detail: detail}
}

func zeroDivision() *Effect {
	return &Effect{Kind: EffectZeroDivision}
}

func virtual(name Name, payload Data) *Effect {
	return &Effect{Kind: EffectVirtual, Name: name, Payload: payload}
}
