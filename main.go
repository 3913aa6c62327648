package main

import "github.com/aleph-zero/lifo/cmd"

func main() {
	cmd.Execute()
}
