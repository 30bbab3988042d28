// lumen is the resource loader CLI: inspect decoded resources, manage
// the content cache, and browse the bundled model catalog.
//
// Usage:
//
//	lumen inspect <url>            Decode a resource and summarize it
//	lumen fetch <url> [-o path]    Retrieve raw bytes through the cache
//	lumen cache <path|purge|clear> Manage the content cache
//	lumen models [name]            Browse the model catalog
//	lumen version                  Show version
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
