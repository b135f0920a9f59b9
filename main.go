package main

import "github.com/KaramelBytes/insightify-cli/cmd"

func main() {
	cmd.Execute()
}
