package main

import "github.com/r4phael/exception-miner/internal/cli"

func main() {
	cli.Execute()
}
