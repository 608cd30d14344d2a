package main

import "github.com/paust-team/zkwatch/cmd/cli"

func main() {
	cli.Main()
}
