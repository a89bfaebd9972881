package main

import "github.com/sg-pedidos/pedidos/cmd/pedidosctl/commands"

func main() {
	commands.Execute()
}
