package uniprot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the public UniProt REST endpoint.
const DefaultBaseURL = "https://rest.uniprot.org"

const (
	defaultBatchSize    = 500
	defaultPollInterval = 2 * time.Second
	resultFields        = "accession,id,gene_names"
)

// Annotation is one row of an ID-mapping result.
type Annotation struct {
	From      string // queried accession
	Entry     string
	EntryName string
	GeneNames string // space-separated gene symbols
}

// Client queries the UniProt ID-mapping service in accession batches.
// Lookups are submitted as asynchronous mapping jobs, polled until finished,
// and streamed back as TSV.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	batchSize    int
	pollInterval time.Duration
	logger       *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the service endpoint (used in tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithBatchSize overrides the per-request accession limit.
func WithBatchSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithPollInterval overrides the job status polling interval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates an ID-mapping client.
func NewClient(logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: 5 * time.Minute},
		baseURL:      DefaultBaseURL,
		batchSize:    defaultBatchSize,
		pollInterval: defaultPollInterval,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// MapAccessions resolves the given accessions to entry and gene-name
// annotations. The input is partitioned into batches; onBatch (optional) is
// invoked with the 1-based batch number after each batch downloads. Any batch
// failure aborts the whole lookup — gene-name matching needs complete
// coverage, so partial results are never returned.
func (c *Client) MapAccessions(ctx context.Context, accessions []string, onBatch func(n int)) ([]Annotation, error) {
	var combined []Annotation
	batch := 0
	for start := 0; start < len(accessions); start += c.batchSize {
		end := start + c.batchSize
		if end > len(accessions) {
			end = len(accessions)
		}
		batch++

		rows, err := c.mapBatch(ctx, accessions[start:end])
		if err != nil {
			return nil, fmt.Errorf("uniprot batch %d: %w", batch, err)
		}
		combined = append(combined, rows...)
		c.logger.Debug("uniprot batch downloaded", "batch", batch, "rows", len(rows))
		if onBatch != nil {
			onBatch(batch)
		}
	}
	return combined, nil
}

func (c *Client) mapBatch(ctx context.Context, accessions []string) ([]Annotation, error) {
	jobID, err := c.submitJob(ctx, accessions)
	if err != nil {
		return nil, err
	}
	if err := c.waitForJob(ctx, jobID); err != nil {
		return nil, err
	}
	return c.streamResults(ctx, jobID)
}

func (c *Client) submitJob(ctx context.Context, accessions []string) (string, error) {
	form := url.Values{}
	form.Set("from", "UniProtKB_AC-ID")
	form.Set("to", "UniProtKB")
	form.Set("ids", strings.Join(accessions, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/idmapping/run", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit mapping job: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("submit mapping job: unexpected status %s", resp.Status)
	}

	var body struct {
		JobID string `json:"jobId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode job submission: %w", err)
	}
	if body.JobID == "" {
		return "", fmt.Errorf("mapping service returned no job id")
	}
	return body.JobID, nil
}

func (c *Client) waitForJob(ctx context.Context, jobID string) error {
	for {
		done, err := c.checkJob(ctx, jobID)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

func (c *Client) checkJob(ctx context.Context, jobID string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/idmapping/status/"+jobID, nil)
	if err != nil {
		return false, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("poll mapping job %s: %w", jobID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("poll mapping job %s: unexpected status %s", jobID, resp.Status)
	}

	var body struct {
		JobStatus string          `json:"jobStatus"`
		Results   json.RawMessage `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("decode job status: %w", err)
	}
	switch {
	case len(body.Results) > 0:
		// Some deployments answer the status poll with the results page
		// directly once the job is done.
		return true, nil
	case body.JobStatus == "FINISHED":
		return true, nil
	case body.JobStatus == "RUNNING" || body.JobStatus == "NEW" || body.JobStatus == "QUEUED" || body.JobStatus == "":
		return false, nil
	default:
		return false, fmt.Errorf("mapping job %s ended with status %q", jobID, body.JobStatus)
	}
}

func (c *Client) streamResults(ctx context.Context, jobID string) ([]Annotation, error) {
	u := fmt.Sprintf("%s/idmapping/uniprotkb/results/stream/%s?format=tsv&fields=%s", c.baseURL, jobID, url.QueryEscape(resultFields))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download mapping results %s: %w", jobID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download mapping results %s: unexpected status %s", jobID, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read mapping results %s: %w", jobID, err)
	}
	return parseResultTSV(string(data))
}

// parseResultTSV decodes the mapping service's TSV payload. Expected columns
// are From, Entry, Entry Name, and Gene Names; unknown columns are ignored.
func parseResultTSV(data string) ([]Annotation, error) {
	lines := strings.Split(strings.TrimRight(data, "\n"), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return nil, nil
	}

	header := strings.Split(lines[0], "\t")
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	fromCol, ok := idx["From"]
	if !ok {
		return nil, fmt.Errorf("mapping result missing From column (header %q)", lines[0])
	}

	field := func(cols []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(cols) {
			return ""
		}
		return cols[i]
	}

	rows := make([]Annotation, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		cols := strings.Split(line, "\t")
		if fromCol >= len(cols) {
			continue
		}
		rows = append(rows, Annotation{
			From:      cols[fromCol],
			Entry:     field(cols, "Entry"),
			EntryName: field(cols, "Entry Name"),
			GeneNames: field(cols, "Gene Names"),
		})
	}
	return rows, nil
}
