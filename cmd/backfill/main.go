// Package main provides the entry point for the backfill batch tool.
package main

import (
	"hotelmetrics/internal/cli"
)

func main() {
	cli.Execute()
}
