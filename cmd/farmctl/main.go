// Command farmctl is the operator CLI: a thin HTTP client over farmd's
// operator REST surface (internal/adapters/httpapi), mirroring its eight
// endpoints one-for-one as cobra subcommands.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var serverAddr string

func main() {
	root := &cobra.Command{
		Use:   "farmctl",
		Short: "Operator CLI for the print-farm daemon",
	}
	root.PersistentFlags().StringVar(&serverAddr, "server", "http://localhost:8080", "farmd operator API base URL")

	root.AddCommand(
		listPrintersCmd(),
		listFilamentChangesCmd(),
		listJobsPendingCmd(),
		confirmFilamentChangeCmd(),
		confirmJobResultCmd(),
		cancelActiveTaskCmd(),
		resetPrinterCmd(),
		toggleEnabledCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var httpClient = &http.Client{Timeout: 10 * time.Second}

func get(path string, out interface{}) error {
	resp, err := httpClient.Get(serverAddr + path)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()
	return decodeOrError(resp, out)
}

func postJSON(path string, body interface{}) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		r = bytes.NewReader(b)
	}
	resp, err := httpClient.Post(serverAddr+path, "application/json", r)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()
	return decodeOrError(resp, nil)
}

func decodeOrError(resp *http.Response, out interface{}) error {
	if resp.StatusCode >= 400 {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		if body.Error == "" {
			body.Error = resp.Status
		}
		return fmt.Errorf("farmd: %s", body.Error)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

type printerView struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Disabled         bool    `json:"disabled"`
	LoadedFilamentID *string `json:"loaded_filament_id,omitempty"`
	Operational      bool    `json:"operational"`
	Printing         bool    `json:"printing"`
	Paused           bool    `json:"paused"`
	Ready            bool    `json:"ready"`
	ClosedOrError    bool    `json:"closed_or_error"`
	ConnectionError  bool    `json:"connection_error"`
	NozzleActualC    float64 `json:"nozzle_actual_c"`
	BedActualC       float64 `json:"bed_actual_c"`
	ActiveTaskID     *string `json:"active_task_id,omitempty"`
	TimeLeftS        *int64  `json:"time_left_s,omitempty"`
}

func listPrintersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-printers",
		Short: "List every printer with its controller status",
		RunE: func(cmd *cobra.Command, args []string) error {
			var printers []printerView
			if err := get("/printers", &printers); err != nil {
				return err
			}
			printJSON(printers)
			return nil
		},
	}
}

func listFilamentChangesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-filament-changes",
		Short: "List unconfirmed filament changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			var changes []json.RawMessage
			if err := get("/pending_filament_changes", &changes); err != nil {
				return err
			}
			printJSON(changes)
			return nil
		},
	}
}

func listJobsPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-jobs-pending",
		Short: "List print jobs awaiting operator confirmation",
		RunE: func(cmd *cobra.Command, args []string) error {
			var jobs []json.RawMessage
			if err := get("/print_jobs_pending_for_confirmation", &jobs); err != nil {
				return err
			}
			printJSON(jobs)
			return nil
		},
	}
}

func confirmFilamentChangeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "confirm-filament-change <id>",
		Short: "Confirm a filament change has been performed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := postJSON("/operations/confirm_filament_change/"+args[0], nil); err != nil {
				return err
			}
			fmt.Println("confirmed")
			return nil
		},
	}
}

func confirmJobResultCmd() *cobra.Command {
	var success bool
	cmd := &cobra.Command{
		Use:   "confirm-job-result <id>",
		Short: "Confirm a print job's success or failure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := struct {
				Success bool `json:"success"`
			}{Success: success}
			if err := postJSON("/operations/confirm_job_result/"+args[0], body); err != nil {
				return err
			}
			fmt.Println("confirmed")
			return nil
		},
	}
	cmd.Flags().BoolVar(&success, "success", true, "whether the print succeeded")
	return cmd
}

func cancelActiveTaskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel-active-task <printer-id>",
		Short: "Cancel the active task on a printer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := postJSON("/operations/cancel_active_task/"+args[0], nil); err != nil {
				return err
			}
			fmt.Println("cancelled")
			return nil
		},
	}
}

func resetPrinterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-printer <printer-id>",
		Short: "Force-clear a printer's active slot and status cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := postJSON("/operations/reset_printer/"+args[0], nil); err != nil {
				return err
			}
			fmt.Println("reset")
			return nil
		},
	}
}

func toggleEnabledCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle-printer-enabled <printer-id>",
		Short: "Toggle a printer's enabled/disabled flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := postJSON("/operations/toggle_printer_en_dis/"+args[0], nil); err != nil {
				return err
			}
			fmt.Println("toggled")
			return nil
		},
	}
}
