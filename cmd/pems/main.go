package main

import (
	"github.com/Ewixxx/PEMS/cmd/pems/commands"
)

func main() {
	commands.Execute()
}
