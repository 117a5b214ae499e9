package main

import "github.com/atikulmunna/logsift/internal/cmd"

func main() {
	cmd.Execute()
}
