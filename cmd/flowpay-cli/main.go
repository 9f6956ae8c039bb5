package main

import "flowpay/cmd/flowpay-cli/cmd"

func main() {
	cmd.Execute()
}
