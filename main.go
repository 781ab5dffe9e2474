package main

import "grocerybi/cmd"

func main() {
	cmd.Execute()
}
