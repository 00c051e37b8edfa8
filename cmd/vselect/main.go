package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	err := NewCLI().ExecuteContext(context.Background())
	if errors.Is(err, errCancelled) {
		os.Exit(1)
	}
	cobra.CheckErr(err)
}
