package main

import "Vibe/cmd"

func main() {
	cmd.Execute()
}
