package runtime

import (
	"fmt"
	"strings"
)

// Name identifies a capture slot or an effect tag. Which one it means
// depends on the instruction carrying it.
type Name int

type Opcode = byte

const (
	RETURN Opcode = iota
	CALL
	CONSTANT
	ADD
	DIV
	GET
	SET
	HANDLER
	RAISE
	POP
	CAPTURE
)

// Op is one decoded instruction. At most one operand field is
// meaningful for a given opcode; the constructors below are the
// intended way to build programs.
type Op struct {
	Kind  Opcode
	Count int
	Name  Name
	Const Data
}

// Code is an instruction sequence. Code is immutable once built and is
// shared by reference between closures, frames and fibers, so the same
// sequence may back many activations at once.
type Code []Op

func Return(count int) Op { return Op{Kind: RETURN, Count: count} }

func Call() Op { return Op{Kind: CALL} }

func Const(d Data) Op { return Op{Kind: CONSTANT, Const: d} }

func Add() Op { return Op{Kind: ADD} }

func Div() Op { return Op{Kind: DIV} }

func Get(name Name) Op { return Op{Kind: GET, Name: name} }

func Set(name Name) Op { return Op{Kind: SET, Name: name} }

func Handler(name Name) Op { return Op{Kind: HANDLER, Name: name} }

func Raise(name Name) Op { return Op{Kind: RAISE, Name: name} }

func Pop(count int) Op { return Op{Kind: POP, Count: count} }

// Capture builds the capture instruction. The raw closure it completes
// is taken from the operand stack, directly below the values being
// captured.
func Capture() Op { return Op{Kind: CAPTURE} }

func (o Op) String() string {
	switch o.Kind {
	case RETURN:
		return fmt.Sprintf("RETURN: %d", o.Count)
	case CALL:
		return "CALL"
	case CONSTANT:
		return fmt.Sprintf("CONSTANT: %s", FormatData(o.Const))
	case ADD:
		return "ADD"
	case DIV:
		return "DIV"
	case GET:
		return fmt.Sprintf("GET: %d", o.Name)
	case SET:
		return fmt.Sprintf("SET: %d", o.Name)
	case HANDLER:
		return fmt.Sprintf("HANDLER: %d", o.Name)
	case RAISE:
		return fmt.Sprintf("RAISE: %d", o.Name)
	case POP:
		return fmt.Sprintf("POP: %d", o.Count)
	case CAPTURE:
		return "CAPTURE"
	default:
		return fmt.Sprintf("UNKNOWN: %d", o.Kind)
	}
}

// Disassemble renders the instruction listing of a code sequence, one
// instruction per line with its offset.
func (c Code) Disassemble() string {
	var sb strings.Builder
	for i, op := range c {
		fmt.Fprintf(&sb, "%04d %s\n", i, op)
	}
	return sb.String()
}
