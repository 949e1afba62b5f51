package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tradelm-ai",
	Short: "TradeLM AI microservice",
	Long: `Dedicated service for LLM processing and trade auto-tagging on behalf of
the TradeLM main backend, protected by a shared secret key.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
