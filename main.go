/*
Copyright © 2023 slightknack
*/
package main

import (
	"github.com/slightknack/effective/cmd"
)

func main() {
	cmd.Execute()
}
