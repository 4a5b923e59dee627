package main

import "github.com/dmwangi/botdeck/cmd/botdeckctl/cmd"

func main() {
	cmd.Execute()
}
