package main

import "github.com/callhubmcp/callhubmcp/cmd"

func main() {
	cmd.Execute()
}
