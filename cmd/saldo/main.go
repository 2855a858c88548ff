package main

import "saldo/internal/cli"

func main() {
	cli.Execute()
}
