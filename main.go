package main

import "github.com/mt4110/chapsplit/cmd"

func main() {
	cmd.Execute()
}
