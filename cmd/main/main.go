package main

import "github.com/plexlist/plexlist/cmd"

func main() {
	cmd.Execute()
}
