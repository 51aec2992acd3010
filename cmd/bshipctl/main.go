package main

import (
	"github.com/mkrato/battleship-server/internal/cli"
)

func main() {
	cli.Execute()
}
