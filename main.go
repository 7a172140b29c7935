package main

import (
	"github.com/AzielCF/az-estate/cmd"
)

func main() {
	cmd.Execute()
}
