package main

import "cdc-reconciler/cmd"

func main() {
	cmd.Execute()
}
