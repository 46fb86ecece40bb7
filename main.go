package main

import "github.com/opspilot/agui/cmd"

func main() {
	cmd.Execute()
}
