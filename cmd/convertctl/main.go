package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	var serverURL string

	rootCmd := &cobra.Command{
		Use:   "convertctl",
		Short: "Client for the document conversion service",
		Long: `convertctl submits documents for conversion, polls for completion
and downloads the result.`,
	}
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "conversion service base URL")

	var (
		target   string
		wait     bool
		interval time.Duration
		maxPolls int
		output   string
	)

	submitCmd := &cobra.Command{
		Use:   "submit [files...]",
		Short: "Submit one or more files for conversion",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(serverURL)

			taskID, err := client.submit(args, target)
			if err != nil {
				return err
			}
			fmt.Println(taskID)

			if !wait {
				return nil
			}

			status, errMsg, err := client.waitForResult(taskID, interval, maxPolls)
			if err != nil {
				return err
			}
			if status == "failed" {
				return fmt.Errorf("conversion failed: %s", errMsg)
			}

			if output == "" {
				output = taskID + "." + target
			}
			if err := client.fetch(taskID, output); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "saved %s\n", output)
			return nil
		},
	}
	submitCmd.Flags().StringVar(&target, "target", "pdf", "target format")
	submitCmd.Flags().BoolVar(&wait, "wait", false, "poll until the conversion finishes and download the result")
	submitCmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "polling interval")
	submitCmd.Flags().IntVar(&maxPolls, "max-polls", 150, "give up after this many polls")
	submitCmd.Flags().StringVar(&output, "output", "", "output path (defaults to <task-id>.<target>)")

	statusCmd := &cobra.Command{
		Use:   "status [task-id]",
		Short: "Show the status of a conversion task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(serverURL)
			status, errMsg, err := client.status(args[0])
			if err != nil {
				return err
			}
			if errMsg != "" {
				fmt.Printf("%s: %s\n", status, errMsg)
			} else {
				fmt.Println(status)
			}
			return nil
		},
	}

	var fetchOutput string
	fetchCmd := &cobra.Command{
		Use:   "fetch [task-id]",
		Short: "Download the result of a completed task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(serverURL)
			if fetchOutput == "" {
				return fmt.Errorf("--output is required")
			}
			return client.fetch(args[0], fetchOutput)
		},
	}
	fetchCmd.Flags().StringVar(&fetchOutput, "output", "", "output path")

	rootCmd.AddCommand(submitCmd, statusCmd, fetchCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
