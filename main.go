package main

import (
	"github.com/portkv/portkv/cmd"
)

func main() {
	cmd.Execute()
}
