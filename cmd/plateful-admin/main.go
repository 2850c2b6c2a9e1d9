package main

import (
	"github.com/plateful/backend/cmd/plateful-admin/commands"
)

func main() {
	commands.Execute()
}
