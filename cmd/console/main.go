package main

import "github.com/josearnulfoborja/inventarioplus-console/cmd/console/cmd"

func main() {
	cmd.Execute()
}
