// Package main is the entry point for the datafilters application
package main

import (
	"github.com/crawlpulse/datafilters/cmd"
)

func main() {
	cmd.Execute()
}
