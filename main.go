package main

import "github.com/notargets/blocksolve/cmd"

func main() {
	cmd.Execute()
}
