package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/apiweaver/weaver/jsonenc"
	"github.com/apiweaver/weaver/report"
)

var (
	testFilePath string
	testHost     string
	testPort     int
	testProtocol string
	testTimeout  time.Duration
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Replay a previously saved exploration report against a target",
	Long: `Test loads a report written by "weaver explore", re-sends each call
in its minimal sequence (method and URL only, no request body) against
--host/--port (localhost:8080 unless given), and prints pass/fail per
call by comparing the observed status code against the one recorded in
the report.`,
	RunE: runTest,
}

func init() {
	testCmd.Flags().StringVar(&testFilePath, "file", "", "Path to a saved report JSON file")
	testCmd.Flags().StringVar(&testHost, "host", "localhost", "Target host to replay against")
	testCmd.Flags().IntVar(&testPort, "port", 8080, "Target port to replay against")
	testCmd.Flags().StringVar(&testProtocol, "protocol", "http", "Target protocol")
	testCmd.Flags().DurationVar(&testTimeout, "timeout", 10*time.Second, "Per-call timeout")
	_ = testCmd.MarkFlagRequired("file")
}

func runTest(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(testFilePath)
	if err != nil {
		return fmt.Errorf("reading report: %w", err)
	}
	var r report.Report
	if err := jsonenc.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("parsing report: %w", err)
	}
	r.PrintTo(os.Stdout)

	baseURL := fmt.Sprintf("%s://%s:%d", testProtocol, testHost, testPort)
	client := &http.Client{Timeout: testTimeout}
	ctx := context.Background()

	totalPassed, totalCalls := 0, 0
	for _, sr := range r.Sequences {
		if len(sr.Operations) == 0 {
			continue
		}
		fmt.Fprintf(os.Stdout, "\nreplay %s:\n", sr.RootOperation)
		passed := 0
		for i, c := range sr.Operations {
			if c.Skipped || c.Method == "" {
				fmt.Fprintf(os.Stdout, "  %d. %s (skipped: no recorded call)\n", i+1, c.Operation)
				continue
			}
			req, err := http.NewRequestWithContext(ctx, c.Method, baseURL+c.URL, nil)
			if err != nil {
				fmt.Fprintf(os.Stdout, "  %d. %s -> build error: %v\n", i+1, c.Operation, err)
				continue
			}
			resp, err := client.Do(req)
			if err != nil {
				fmt.Fprintf(os.Stdout, "  %d. %s -> transport error: %v\n", i+1, c.Operation, err)
				continue
			}
			resp.Body.Close()

			ok := resp.StatusCode == c.StatusCode
			if ok {
				passed++
			}
			fmt.Fprintf(os.Stdout, "  %d. %s -> %d (recorded %d) %s\n", i+1, c.Operation, resp.StatusCode, c.StatusCode, passFail(ok))
		}
		fmt.Fprintf(os.Stdout, "%d/%d calls reproduced their recorded status\n", passed, len(sr.Operations))
		totalPassed += passed
		totalCalls += len(sr.Operations)
	}
	if totalCalls > 0 {
		fmt.Fprintf(os.Stdout, "\n%d/%d calls reproduced their recorded status across %d operation(s)\n", totalPassed, totalCalls, len(r.Sequences))
	}
	return nil
}

func passFail(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}
