package main

import "snapspot/cmd"

func main() {
	cmd.Execute()
}
