package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

type client struct {
	baseURL string
	http    *http.Client
}

func newClient(baseURL string) *client {
	return &client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type submitResponse struct {
	TaskID string `json:"task_id"`
}

type statusResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (c *client) submit(paths []string, target string) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		part, err := writer.CreateFormFile("files", filepath.Base(path))
		if err != nil {
			return "", err
		}
		if _, err := part.Write(data); err != nil {
			return "", err
		}
	}
	if err := writer.WriteField("target_format", target); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	resp, err := c.http.Post(c.baseURL+"/upload", writer.FormDataContentType(), body)
	if err != nil {
		return "", fmt.Errorf("submit request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("submit rejected: %s", readDetail(resp))
	}

	var sr submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("decode submit response: %w", err)
	}
	return sr.TaskID, nil
}

func (c *client) status(taskID string) (string, string, error) {
	resp, err := c.http.Get(c.baseURL + "/status/" + taskID)
	if err != nil {
		return "", "", fmt.Errorf("status request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", "", fmt.Errorf("task %s not found", taskID)
	}
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("status request rejected: %s", readDetail(resp))
	}

	var sr statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", "", fmt.Errorf("decode status response: %w", err)
	}
	return sr.Status, sr.Error, nil
}

// waitForResult polls until the task reaches a terminal state or the poll
// budget runs out. Transport errors are not a task failure: the task keeps
// running server-side, so polling continues.
func (c *client) waitForResult(taskID string, interval time.Duration, maxPolls int) (string, string, error) {
	for i := 0; i < maxPolls; i++ {
		status, errMsg, err := c.status(taskID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "poll failed (will retry): %v\n", err)
		} else if status == "completed" || status == "failed" {
			return status, errMsg, nil
		}
		time.Sleep(interval)
	}
	return "", "", fmt.Errorf("task %s did not finish within %d polls", taskID, maxPolls)
}

func (c *client) fetch(taskID, outputPath string) error {
	resp, err := c.http.Get(c.baseURL + "/download/" + taskID)
	if err != nil {
		return fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusGone:
		return fmt.Errorf("result for task %s has expired", taskID)
	case http.StatusNotFound:
		return fmt.Errorf("result for task %s is not available", taskID)
	default:
		return fmt.Errorf("download rejected: %s", readDetail(resp))
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

func readDetail(resp *http.Response) string {
	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err == nil && er.Detail != "" {
		return er.Detail
	}
	return resp.Status
}
