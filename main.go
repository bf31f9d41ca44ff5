package main

import (
	"os"

	"github.com/XiaoqianXiao/hyak-narsad-remove/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
