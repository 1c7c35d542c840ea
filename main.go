package main

import (
	"context"
	"os"

	"github.com/rhymednick/inw-radio-log/cmd"
)

func main() {
	if err := cmd.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
