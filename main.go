package main

import "github.com/quocvuong92/omni-cli/cmd"

func main() {
	cmd.Execute()
}
