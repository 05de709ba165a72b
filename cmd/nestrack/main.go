package main

import "github.com/nestrack/nestrack/cmd"

func main() {
	cmd.Execute()
}
