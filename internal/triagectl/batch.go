package triagectl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"claimguard/internal/claims/handler"
)

const (
	keyServer = "server"
	keyToken  = "token"
)

func (a *app) newBatchCommand() *cobra.Command {
	var (
		idsFile string
		workers int
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "batch [claim-id...]",
		Short: "Re-evaluate claims on a running server",
		Long: `Batch asks the server to re-evaluate the given claims with a bounded
number of workers. IDs come from the arguments and from --ids-file (one per
line, # starts a comment).

Example:
  triagectl batch CLM-0042 CLM-0043 --server http://localhost:8080 --token $TOKEN
  CLAIMGUARD_TOKEN=... triagectl batch --ids-file backlog.txt --workers 8`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := append([]string(nil), args...)
			if idsFile != "" {
				more, err := readIDs(idsFile)
				if err != nil {
					return err
				}
				ids = append(ids, more...)
			}
			if len(ids) == 0 {
				return fmt.Errorf("no claim ids given")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			resp, err := a.postBatch(ctx, ids, workers)
			if err != nil {
				return err
			}
			return a.printBatch(resp)
		},
	}
	cmd.Flags().String(keyServer, "http://localhost:8080", "claimguard server base URL")
	cmd.Flags().String(keyToken, "", "actor bearer token (see 'triagectl token issue')")
	cmd.Flags().StringVar(&idsFile, "ids-file", "", "file with one claim id per line")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent evaluations on the server (0 uses the server default)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall request timeout")
	_ = a.v.BindPFlag(keyServer, cmd.Flags().Lookup(keyServer))
	_ = a.v.BindPFlag(keyToken, cmd.Flags().Lookup(keyToken))
	return cmd
}

func readIDs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ids file: %w", err)
	}
	defer f.Close()

	var ids []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line, _, _ := strings.Cut(sc.Text(), "#")
		if line = strings.TrimSpace(line); line != "" {
			ids = append(ids, line)
		}
	}
	return ids, sc.Err()
}

func (a *app) postBatch(ctx context.Context, ids []string, workers int) (handler.BatchEvaluateResponse, error) {
	var out handler.BatchEvaluateResponse
	token := a.v.GetString(keyToken)
	if token == "" {
		return out, fmt.Errorf("a token is required (--token or CLAIMGUARD_TOKEN)")
	}
	body, err := json.Marshal(handler.BatchEvaluateRequest{ClaimIDs: ids, Workers: workers})
	if err != nil {
		return out, err
	}
	url := strings.TrimSuffix(a.v.GetString(keyServer), "/") + "/v1/claims/evaluate-batch"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return out, fmt.Errorf("batch request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return out, fmt.Errorf("server answered %d: %s %s", resp.StatusCode, apiErr.Error, apiErr.ErrorDescription)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decode batch response: %w", err)
	}
	return out, nil
}

func (a *app) printBatch(resp handler.BatchEvaluateResponse) error {
	done, err := writeStructured(a.out, a.v.GetString(keyOutput), resp)
	if done || err != nil {
		return err
	}
	tw := newTable(a.out)
	fmt.Fprintln(tw, "CLAIM\tSTATE\tVERDICT\tSCORE\tNOTE")
	for _, r := range resp.Results {
		score := "-"
		if r.RiskScore != nil {
			score = fmt.Sprint(*r.RiskScore)
		}
		note := ""
		switch {
		case r.Skipped:
			note = "skipped"
		case r.ErrorCode != "":
			note = strings.TrimSpace(r.ErrorCode + " " + r.Error)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ClaimID, r.State, r.Verdict, score, note)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.errOut, "evaluated %d, failed %d, skipped %d\n", resp.Evaluated, resp.Failed, resp.Skipped)
	if resp.Cancelled {
		return fmt.Errorf("batch was cancelled before every claim ran")
	}
	return nil
}
