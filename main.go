package main

import (
	"github.com/luma/lagoon/cmd"
)

func main() {
	cmd.Execute()
}
