package main

import "github.com/deploymenttheory/go-ebd/cmd"

func main() {
	cmd.Execute()
}
