package main

import (
	"github.com/complypoint/complyctl/cmd"
)

func main() {
	cmd.Execute()
}
