package main

import "otc-core/cmd/otc-cli/cmd"

func main() {
	cmd.Execute()
}
