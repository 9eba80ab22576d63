package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "face-profile",
	Short: "Self-service profile pictures with face verification",
	Long: `Face Profile is a web application that lets directory users manage
their profile and profile picture. Uploaded pictures must contain exactly
one face and, once a user is enrolled, match the face on record before
they are stored.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
