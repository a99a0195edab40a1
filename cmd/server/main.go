package main

import "account-ledger/internal/cli"

func main() {
	cli.Execute()
}
