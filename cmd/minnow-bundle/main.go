package main

import "github.com/oshokin/minnow-bundle/cmd/minnow-bundle/cmd"

func main() {
	cmd.Execute()
}
