package main

import "github.com/opsleuth/sqlite-doctor/cli"

func main() {
	cli.Execute()
}
