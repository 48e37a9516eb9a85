package main

import "github.com/skyrrd/alexandria/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
