package main

import "github.com/mvp-joe/typelink/internal/cli"

func main() {
	cli.Execute()
}
