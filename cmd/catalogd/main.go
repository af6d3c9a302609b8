package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const service = "catalog-api"

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "catalogd",
		Short:   "Versioned product catalog API with webhook notifications",
		Version: Version,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
