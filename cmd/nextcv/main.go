package main

import (
	"github.com/nextcv/nextcv/cmd/nextcv/cmd"
)

func main() {
	cmd.Execute()
}
