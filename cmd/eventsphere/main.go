package main

import "github.com/mcoot/eventsphere/internal/cli"

func main() {
	cli.Execute()
}
