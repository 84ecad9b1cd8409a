package main

import "github.com/frigidsec/ctfadmin/cmd"

func main() {
	cmd.Execute()
}
