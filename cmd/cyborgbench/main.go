package main

import "github.com/hyperjump/cyborgbench/internal/cli"

func main() {
	cli.Execute()
}
