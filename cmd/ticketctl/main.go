package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	// a missing .env is fine; the environment may already be populated
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:     "ticketctl",
		Short:   "Operator tools for ticket bookings",
		Version: Version,
	}

	rootCmd.AddCommand(verifyCmd())
	rootCmd.AddCommand(resendCmd())
	rootCmd.AddCommand(bookingsCmd())
	rootCmd.AddCommand(analyticsCmd())
	rootCmd.AddCommand(expireCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
