package main

import "github.com/plazareviews/revscope/cmd"

func main() {
	cmd.Execute()
}
