package main

import "histbeat/cmd/histbeat/cmd"

func main() {
	cmd.Execute()
}
