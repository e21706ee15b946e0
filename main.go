package main

import "github.com/user/sarif-cli/cmd"

func main() {
	cmd.Execute()
}
