// Copyright © 2024 The pyscope authors

package main

import "github.com/luthersystems/pyscope/cmd"

func main() {
	cmd.Execute()
}
