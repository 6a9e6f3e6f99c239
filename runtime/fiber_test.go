package runtime

import (
	"testing"
)

// abandon is a handler body that returns both of the values every
// handler fiber starts with: the raiser's continuation below the
// payload. Running it to completion surfaces them as the result stack.
func abandonHandler() Closure {
	return NewClosure(Code{Return(2)}, nil)
}

// resumeHandler immediately calls the continuation with the payload:
// its stack is already [continuation, payload], exactly the call
// layout.
func resumeHandler() Closure {
	return NewClosure(Code{Call()}, nil)
}

func TestRaiseDeliversContinuationBelowPayload(t *testing.T) {
	rest := mustRun(t, Code{
		Const(abandonHandler()),
		Handler(7),
		Const(42.0),
		Raise(7),
	})
	if len(rest) != 2 {
		t.Fatalf("stack = %v, want two values", rest)
	}
	if _, ok := rest[0].(*Continuation); !ok {
		t.Errorf("below payload = %v, want a continuation", FormatData(rest[0]))
	}
	if rest[1] != 42.0 {
		t.Errorf("payload = %v, want 42", rest[1])
	}
}

func TestResumeRestoresRaiserAfterRaise(t *testing.T) {
	rest := mustRun(t, Code{
		Const(resumeHandler()),
		Handler(0),
		Const(7.0),
		Raise(0),
		Return(1),
	})
	if len(rest) != 1 || rest[0] != 7.0 {
		t.Fatalf("stack = %v, want [7]", rest)
	}
}

func TestResumePushesHandlerContinuation(t *testing.T) {
	// after a resume the raiser holds the handler's own continuation
	// directly below the transferred value
	rest := mustRun(t, Code{
		Const(resumeHandler()),
		Handler(0),
		Const(7.0),
		Raise(0),
	})
	if len(rest) != 2 {
		t.Fatalf("stack = %v, want two values", rest)
	}
	cont, ok := rest[0].(*Continuation)
	if !ok {
		t.Fatalf("below value = %v, want a continuation", FormatData(rest[0]))
	}
	if cont.Resumed() {
		t.Error("handler continuation should still be resumable")
	}
	if rest[1] != 7.0 {
		t.Errorf("transferred value = %v, want 7", rest[1])
	}
}

func TestUnhandledRaiseIsVirtual(t *testing.T) {
	eff := runExpectEffect(t, Code{Const(5.0), Raise(3)}, EffectVirtual)
	if eff.Name != 3 {
		t.Errorf("effect name = %d, want 3", eff.Name)
	}
	if eff.Payload != 5.0 {
		t.Errorf("effect payload = %v, want 5", eff.Payload)
	}
}

func TestHandlerVisibleFromNestedFrame(t *testing.T) {
	// registered in the outer frame, raised from a callee frame
	inner := NewClosure(Code{Const(8.0), Raise(4)}, nil)
	rest := mustRun(t, Code{
		Const(abandonHandler()),
		Handler(4),
		Const(inner),
		Const(0.0),
		Call(),
	})
	if len(rest) != 2 || rest[1] != 8.0 {
		t.Fatalf("stack = %v, want [cont 8]", rest)
	}
}

func TestHandlerVisibleAcrossFiberBoundary(t *testing.T) {
	// effect 2 switches into a handler fiber; raising effect 1 there
	// resolves through the parent link into the original fiber
	reraise := NewClosure(Code{Const(6.0), Raise(1)}, nil)
	rest := mustRun(t, Code{
		Const(abandonHandler()),
		Handler(1),
		Const(reraise),
		Handler(2),
		Const(5.0),
		Raise(2),
	})
	if len(rest) != 2 || rest[1] != 6.0 {
		t.Fatalf("stack = %v, want [cont 6]", rest)
	}
}

func TestHandlerDroppedWithItsFrame(t *testing.T) {
	// a handler registered inside a callee frame dies with the frame
	registrar := NewClosure(Code{
		Const(abandonHandler()),
		Handler(9),
		Const(0.0),
		Return(1),
	}, nil)
	runExpectEffect(t, Code{
		Const(registrar),
		Const(0.0),
		Call(),
		Raise(9),
	}, EffectVirtual)
}

func TestHandlerOverwriteWithinFrame(t *testing.T) {
	// a later registration for the same name wins
	rest := mustRun(t, Code{
		Const(resumeHandler()),
		Handler(0),
		Const(abandonHandler()),
		Handler(0),
		Const(1.0),
		Raise(0),
	})
	// the abandoning handler ran: its fiber finished holding the
	// continuation and payload
	if len(rest) != 2 || rest[1] != 1.0 {
		t.Fatalf("stack = %v, want [cont 1]", rest)
	}
	if _, ok := rest[0].(*Continuation); !ok {
		t.Fatalf("below payload = %v, want a continuation", FormatData(rest[0]))
	}
}

func TestDoubleResumeIsFatal(t *testing.T) {
	// the handler stashes the raiser's continuation in a capture
	// snapshot and calls it twice; the second call must fault
	doubleCaller := RawClosure{
		Code: Code{
			Get(0),
			Const(1.0),
			Call(),
			Get(0),
			Const(2.0),
			Call(),
		},
		NumCaptures: 1,
	}
	handler := NewClosure(Code{
		Pop(1),
		Const(doubleCaller),
		Capture(),
		Const(0.0),
		Call(),
	}, nil)
	runExpectEffect(t, Code{
		Const(handler),
		Handler(0),
		Const(9.0),
		Raise(0),
		Call(),
	}, EffectFatal)
}

func TestConsumeIsOneShot(t *testing.T) {
	cont := &Continuation{fiber: NewFiber(NewClosure(Code{}, nil))}
	if _, eff := cont.consume(); eff != nil {
		t.Fatalf("first consume faulted: %v", eff)
	}
	if !cont.Resumed() {
		t.Error("continuation should report resumed")
	}
	if _, eff := cont.consume(); eff == nil || eff.Kind != EffectFatal {
		t.Fatalf("second consume = %v, want Fatal", eff)
	}
}

func TestRaisePopsPayloadBeforeVirtual(t *testing.T) {
	// the payload leaves the stack even when no handler exists
	fiber := NewFiber(NewClosure(Code{Const(5.0), Raise(3)}, nil))
	if _, err := NewReleaseMachine().Run(fiber); err == nil {
		t.Fatal("program succeeded, want Virtual")
	}
	if len(fiber.Values()) != 0 {
		t.Fatalf("values = %v, want empty after payload pop", fiber.Values())
	}
	if !fiber.Done() {
		t.Error("faulted fiber should be done")
	}
}

func TestHandlerNames(t *testing.T) {
	fiber := NewFiber(NewClosure(Code{
		Const(abandonHandler()),
		Handler(5),
		Const(abandonHandler()),
		Handler(2),
	}, nil))
	if _, err := NewReleaseMachine().Run(fiber); err != nil {
		t.Fatalf("program faulted: %v", err)
	}
	names := fiber.HandlerNames()
	if len(names) != 2 || names[0] != 2 || names[1] != 5 {
		t.Fatalf("handler names = %v, want [2 5]", names)
	}
}

func TestDemoProgram(t *testing.T) {
	// the canonical smoke program: arithmetic, then raise into a
	// handler that resumes with the payload
	rest := mustRun(t, Code{
		Const(3.0),
		Const(4.0),
		Const(5.0),
		Add(),
		Div(),
		Const(resumeHandler()),
		Handler(0),
		Raise(0),
	})
	if len(rest) != 2 {
		t.Fatalf("stack = %v, want two values", rest)
	}
	if _, ok := rest[0].(*Continuation); !ok {
		t.Errorf("below result = %v, want the handler continuation", FormatData(rest[0]))
	}
	if rest[1] != 3.0 {
		t.Errorf("result = %v, want 3", rest[1])
	}
}
