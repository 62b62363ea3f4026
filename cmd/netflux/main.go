package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/MELON-27AF/Project-5g/internal/handler" // register handlers
)

var rootCmd = &cobra.Command{
	Use:   "netflux",
	Short: "5G topology compiler",
	Long:  "Compiles topology documents into emulation scripts and per-node 5G configs.",
}

func init() {
	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
