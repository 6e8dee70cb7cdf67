// Package main is the entry point for the bitfuzz CLI.
package main

import "bitfuzz.dev/pkg/bitfuzz/cmd"

func main() {
	cmd.Execute()
}
