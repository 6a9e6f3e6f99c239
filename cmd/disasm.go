/*
Copyright © 2023 slightknack
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm [image]",
	Short: "Print the instruction listing of a program image",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fun, err := loadProgram(args)
		if err != nil {
			return err
		}
		fmt.Print(fun.Code.Disassemble())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(disasmCmd)
}
