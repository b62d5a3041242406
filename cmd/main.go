/*
Package main is the entry point for the chatterm terminal chat client.

It is responsible for loading configuration (environment, optional YAML file, flags),
initializing the global logging system, opening the credential database, wiring the
API client, the conversation store, the push channel and the terminal UI together,
and tearing everything down when the UI exits or an interrupt signal arrives.
*/
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "chatterm: %v\n", err)
		os.Exit(1)
	}
}
