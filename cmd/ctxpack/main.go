package main

import "github.com/mvp-joe/ctxpack/internal/cli"

func main() {
	cli.Execute()
}
