package main

import "github.com/chrisdamba/orderlens/cmd"

func main() {
	cmd.Execute()
}
