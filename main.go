package main

import "linkedlens/cmd"

func main() {
	cmd.Execute()
}
