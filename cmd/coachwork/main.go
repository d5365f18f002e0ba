package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "coachwork",
	Short: "Coachwork — coaching workflow engine",
	Long:  "Coachwork is the transactional core of a coaching platform: it manages coaching relationships, the task lifecycle between professionals and participants, submission review, and invitation-based onboarding.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: configs/coachwork.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
