/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Command widerow inspects the wide rows of a widerow backend.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
