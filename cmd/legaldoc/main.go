package main

import "github.com/emrgen/legaldoc/cmd"

func main() {
	cmd.Execute()
}
