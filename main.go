package main

import "skillsweb/cardgraph/cmd"

func main() {
	cmd.Execute()
}
