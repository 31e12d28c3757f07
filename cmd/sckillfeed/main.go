package main

import "github.com/hugsndnugs/SCKillFeed/cmd/sckillfeed/commands"

func main() {
	commands.Execute()
}
