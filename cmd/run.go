/*
Copyright © 2023 slightknack
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/slightknack/effective/config"
	"github.com/slightknack/effective/image"
	"github.com/slightknack/effective/runtime"
)

var runCmd = &cobra.Command{
	Use:   "run [image]",
	Short: "Run a program image, or the built-in demonstration program",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProgram,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runProgram(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	fun, err := loadProgram(args)
	if err != nil {
		return err
	}

	machine := runtime.NewReleaseMachine()
	machine.TraceValues = cfg.Trace.Values
	machine.TraceFrames = cfg.Trace.Frames
	machine.TraceExecution = cfg.Trace.Execution

	rest, err := machine.RunClosure(fun)
	if err != nil {
		return err
	}
	for _, d := range rest {
		fmt.Println(runtime.FormatData(d))
	}
	return nil
}

func loadProgram(args []string) (runtime.Closure, error) {
	if len(args) == 0 {
		return demoProgram(), nil
	}
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return runtime.Closure{}, err
	}
	return image.UnmarshalProgram(raw)
}
