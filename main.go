package main

import "sitegrab/cmd"

func main() {
	cmd.Execute()
}
