// Package main is the entry point for the curtainctl admin CLI, an HTTP
// client for the Curtain backend API.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type clientOpts struct {
	host   string
	apiKey string
	token  string
}

func (c *clientOpts) do(method, path string, body interface{}) (map[string]interface{}, error) {
	raw, err := c.doRaw(method, path, body)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}
	return out, nil
}

func (c *clientOpts) doRaw(method, path string, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, strings.TrimRight(c.host, "/")+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := (&http.Client{Timeout: 2 * time.Minute}).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(raw)))
	}
	return raw, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newRootCmd() *cobra.Command {
	opts := &clientOpts{}

	rootCmd := &cobra.Command{
		Use:           "curtainctl",
		Short:         "Curtain backend CLI",
		Long:          "Command-line interface for the Curtain backend API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			// Precedence: flag > env > default.
			if opts.host == "" {
				opts.host = os.Getenv("CURTAIN_HOST")
			}
			if opts.host == "" {
				opts.host = "http://localhost:8080"
			}
			if opts.apiKey == "" {
				opts.apiKey = os.Getenv("CURTAIN_API_KEY")
			}
			if opts.token == "" {
				opts.token = os.Getenv("CURTAIN_TOKEN")
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&opts.host, "host", "", "API base URL (env CURTAIN_HOST)")
	rootCmd.PersistentFlags().StringVar(&opts.apiKey, "api-key", "", "API key (env CURTAIN_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", "", "Bearer token (env CURTAIN_TOKEN)")

	rootCmd.AddCommand(
		newCompareCmd(opts),
		newJobCmd(opts),
		newSessionCmd(opts),
		newStatsCmd(opts),
		newKeysCmd(opts),
	)
	return rootCmd
}

func newCompareCmd(opts *clientOpts) *cobra.Command {
	var (
		sessions  []string
		terms     []string
		matchType string
		channel   string
		wait      bool
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Submit a cross-session comparison",
		RunE: func(*cobra.Command, []string) error {
			out, err := opts.do(http.MethodPost, "/compare", map[string]interface{}{
				"idList":    sessions,
				"studyList": terms,
				"matchType": matchType,
				"sessionId": channel,
			})
			if err != nil {
				return err
			}
			jobID, _ := out["job_id"].(string)
			if !wait {
				return printJSON(out)
			}
			return pollJob(opts, jobID)
		},
	}
	cmd.Flags().StringSliceVar(&sessions, "session", nil, "session link ID (repeatable)")
	cmd.Flags().StringSliceVar(&terms, "query", nil, "query identifier (repeatable)")
	cmd.Flags().StringVar(&matchType, "match-type", "primaryID", "primaryID, primaryID-uniprot, or geneNames")
	cmd.Flags().StringVar(&channel, "channel", "", "progress channel name")
	cmd.Flags().BoolVar(&wait, "wait", false, "poll until the job finishes and print the result")
	_ = cmd.MarkFlagRequired("session")
	_ = cmd.MarkFlagRequired("query")
	_ = cmd.MarkFlagRequired("channel")
	return cmd
}

func pollJob(opts *clientOpts, jobID string) error {
	for {
		raw, err := opts.doRaw(http.MethodGet, "/jobs/"+jobID, nil)
		if err != nil {
			return err
		}
		var envelope struct {
			Status string `json:"status"`
		}
		// A finished job returns the bare result with no status field.
		if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Status == "" {
			os.Stdout.Write(raw)
			fmt.Println()
			return nil
		}
		if envelope.Status == "failed" {
			return fmt.Errorf("job %s failed", jobID)
		}
		time.Sleep(2 * time.Second)
	}
}

func newJobCmd(opts *clientOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "job <job-id>",
		Short: "Poll a comparison job",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			raw, err := opts.doRaw(http.MethodGet, "/jobs/"+args[0], nil)
			if err != nil {
				return err
			}
			os.Stdout.Write(raw)
			fmt.Println()
			return nil
		},
	}
}

func newSessionCmd(opts *clientOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect and manage sessions",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get <link-id>",
			Short: "Show session metadata",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				out, err := opts.do(http.MethodGet, "/sessions/"+args[0], nil)
				if err != nil {
					return err
				}
				return printJSON(out)
			},
		},
		&cobra.Command{
			Use:   "delete <link-id>",
			Short: "Delete a session and its stored payload",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				_, err := opts.doRaw(http.MethodDelete, "/sessions/"+args[0], nil)
				return err
			},
		},
	)
	return cmd
}

func newStatsCmd(opts *clientOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show session counts",
		RunE: func(*cobra.Command, []string) error {
			out, err := opts.do(http.MethodGet, "/stats", nil)
			if err != nil {
				return err
			}
			return printJSON(out)
		},
	}
}

func newKeysCmd(opts *clientOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage API keys",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "create <name>",
			Short: "Create an API key (printed once)",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				out, err := opts.do(http.MethodPost, "/api-keys", map[string]string{"name": args[0]})
				if err != nil {
					return err
				}
				return printJSON(out)
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List API key names",
			RunE: func(*cobra.Command, []string) error {
				raw, err := opts.doRaw(http.MethodGet, "/api-keys", nil)
				if err != nil {
					return err
				}
				os.Stdout.Write(raw)
				fmt.Println()
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <name>",
			Short: "Delete an API key by name",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				_, err := opts.doRaw(http.MethodDelete, "/api-keys", map[string]string{"name": args[0]})
				return err
			},
		},
	)
	return cmd
}
