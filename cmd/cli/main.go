package main

import "wsgateway/cmd/cli/command"

func main() {
	command.Execute()
}
