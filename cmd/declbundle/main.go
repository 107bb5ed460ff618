package main

import "github.com/mvp-joe/declbundle/internal/cli"

func main() {
	cli.Execute()
}
