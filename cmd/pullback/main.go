package main

import "github.com/rustyeddy/pullback/internal/cli"

func main() {
	cli.Execute()
}
