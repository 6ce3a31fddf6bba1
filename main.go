package main

import "github.com/wolfitem/ai-podcast/cmd"

func main() {
	cmd.Execute()
}
