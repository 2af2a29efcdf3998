// Package main is the entry point for the rlcoach CLI tool, which pulls
// Rocket League match stats from the ballchasing.com API into a local store
// and turns them into summaries, trends, charts, and AI coaching.
package main

import "github.com/pable/go-rl-coach/cmd"

func main() {
	cmd.Execute()
}
