package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Transcript output formats.
const (
	FormatJSONv2 = "json-v2"
	FormatText   = "txt"
	FormatSRT    = "srt"
)

// Job statuses reported by the batch API.
const (
	jobRunning  = "running"
	jobDone     = "done"
	jobRejected = "rejected"
	jobDeleted  = "deleted"
	jobExpired  = "expired"
)

// File is an audio payload to transcribe.
type File struct {
	Name string
	Data []byte
}

// TranscribeOptions selects language and transcript format.
type TranscribeOptions struct {
	Language string
	Format   string
}

type jobConfig struct {
	Type                string              `json:"type"`
	TranscriptionConfig transcriptionConfig `json:"transcription_config"`
}

type transcriptionConfig struct {
	Language string `json:"language"`
}

type createJobResponse struct {
	ID string `json:"id"`
}

type jobStatusResponse struct {
	Job struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	} `json:"job"`
}

// Transcript is the json-v2 transcript shape.
type Transcript struct {
	Results []struct {
		Alternatives []struct {
			Content string `json:"content"`
		} `json:"alternatives"`
	} `json:"results"`
}

// Text joins the first alternative of every result with single spaces.
// Results without alternatives contribute an empty segment.
func (t Transcript) Text() string {
	parts := make([]string, len(t.Results))
	for i, r := range t.Results {
		if len(r.Alternatives) > 0 {
			parts[i] = r.Alternatives[0].Content
		}
	}
	return strings.Join(parts, " ")
}

// Transcribe submits file as a batch job, waits for it to finish and returns
// the transcript text.
func (c *Client) Transcribe(ctx context.Context, file File, opts TranscribeOptions) (string, error) {
	if err := c.Ready(); err != nil {
		return "", err
	}
	if opts.Format == "" {
		opts.Format = FormatJSONv2
	}

	jobID, err := c.createJob(ctx, file, opts)
	if err != nil {
		return "", err
	}
	if err := c.waitForJob(ctx, jobID); err != nil {
		return "", err
	}

	raw, err := c.transcript(ctx, jobID, opts.Format)
	if err != nil {
		return "", err
	}

	if opts.Format != FormatJSONv2 {
		return string(raw), nil
	}
	var t Transcript
	if err := json.Unmarshal(raw, &t); err != nil {
		return "", fmt.Errorf("decode transcript of job %s: %w", jobID, err)
	}
	return t.Text(), nil
}

func (c *Client) createJob(ctx context.Context, file File, opts TranscribeOptions) (string, error) {
	config, err := json.Marshal(jobConfig{
		Type:                "transcription",
		TranscriptionConfig: transcriptionConfig{Language: opts.Language},
	})
	if err != nil {
		return "", fmt.Errorf("encode job config: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("config", string(config)); err != nil {
		return "", fmt.Errorf("write job config: %w", err)
	}
	part, err := mw.CreateFormFile("data_file", file.Name)
	if err != nil {
		return "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return "", fmt.Errorf("write file part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BatchURL+"/jobs", &body)
	if err != nil {
		return "", fmt.Errorf("build job request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out createJobResponse
	if err := c.doJSON(req, &out); err != nil {
		return "", fmt.Errorf("create job: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("create job: response has no job id")
	}
	return out.ID, nil
}

func (c *Client) waitForJob(ctx context.Context, jobID string) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for job %s: %w", jobID, ctx.Err())
		case <-timer.C:
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BatchURL+"/jobs/"+url.PathEscape(jobID), nil)
		if err != nil {
			return fmt.Errorf("build job status request: %w", err)
		}
		c.authorize(req)

		var status jobStatusResponse
		if err := c.doJSON(req, &status); err != nil {
			return fmt.Errorf("get job %s: %w", jobID, err)
		}

		switch status.Job.Status {
		case jobDone:
			return nil
		case jobRejected, jobDeleted, jobExpired:
			detail := status.Job.Status
			if len(status.Job.Errors) > 0 {
				detail += ": " + status.Job.Errors[0].Message
			}
			return fmt.Errorf("job %s %s: %w", jobID, detail, ErrJobFailed)
		}

		timer.Reset(c.cfg.PollInterval)
	}
}

func (c *Client) transcript(ctx context.Context, jobID, format string) ([]byte, error) {
	endpoint := c.cfg.BatchURL + "/jobs/" + url.PathEscape(jobID) + "/transcript?format=" + url.QueryEscape(format)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build transcript request: %w", err)
	}
	c.authorize(req)

	body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("get transcript of job %s: %w", jobID, err)
	}
	return body, nil
}

func (c *Client) doJSON(req *http.Request, out any) error {
	body, err := c.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
