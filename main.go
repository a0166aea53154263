// SPDX-License-Identifier: MIT
package main

import "github.com/e-mit/gitscan/cmd/gitscan"

// execute is overridable in tests.
var execute = gitscan.Execute

func main() {
	execute()
}
