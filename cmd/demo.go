/*
Copyright © 2023 slightknack
*/
package cmd

import (
	"github.com/slightknack/effective/runtime"
)

// demoProgram assembles the canonical smoke program: a little
// arithmetic, then an effect raised into a handler whose whole body
// resumes the raiser with the payload it received.
func demoProgram() runtime.Closure {
	resume := runtime.NewClosure(runtime.Code{
		runtime.Call(),
	}, nil)

	return runtime.NewClosure(runtime.Code{
		runtime.Const(3.0),
		runtime.Const(4.0),
		runtime.Const(5.0),
		runtime.Add(),
		runtime.Div(),
		runtime.Const(resume),
		runtime.Handler(0),
		runtime.Raise(0),
	}, nil)
}
