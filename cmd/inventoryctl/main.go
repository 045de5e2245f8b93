package main

import "inventory-service/cmd/inventoryctl/commands"

func main() {
	commands.Execute()
}
