package main

import "github.com/orchd-ai/orchd/cmd"

func main() {
	cmd.Execute()
}
