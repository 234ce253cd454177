package main

import "github.com/mj1618/iphone-cli/cmd"

func main() {
	cmd.Execute()
}
