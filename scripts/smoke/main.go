// Command smoke exercises a running API instance end to end: it registers a
// throwaway account, creates a sample project and verifies that the generated
// schedule and streak endpoints respond with consistent data. Intended for
// post-deploy checks against staging.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

type step struct {
	Name     string
	Status   int
	Duration time.Duration
	Err      error
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	var (
		base    string
		prefix  string
		timeout time.Duration
		keep    bool
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&prefix, "prefix", "/api/v1", "API route prefix")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.BoolVar(&keep, "keep", false, "keep the created project instead of deleting it")
	flag.Parse()

	client := &http.Client{Timeout: timeout}
	runner := &runner{client: client, base: strings.TrimRight(base, "/") + prefix}

	email := fmt.Sprintf("smoke-%d@example.com", time.Now().UnixNano())

	token := runner.register(email)
	projectID := runner.createProject(token)
	events := runner.fetchSchedule(token, projectID)
	runner.fetchStreak(token, projectID)
	if !keep {
		runner.deleteProject(token, projectID)
	}

	printReport(runner.steps, len(events))
	for _, s := range runner.steps {
		if s.Err != nil {
			os.Exit(1)
		}
	}
}

type runner struct {
	client *http.Client
	base   string
	steps  []step
}

func (r *runner) do(name, method, path, token string, body interface{}, out interface{}) int {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			r.steps = append(r.steps, step{Name: name, Err: err})
			return 0
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, r.base+path, reader)
	if err != nil {
		r.steps = append(r.steps, step{Name: name, Err: err})
		return 0
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		r.steps = append(r.steps, step{Name: name, Duration: elapsed, Err: err})
		return 0
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		r.steps = append(r.steps, step{Name: name, Status: resp.StatusCode, Duration: elapsed, Err: err})
		return resp.StatusCode
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			r.steps = append(r.steps, step{Name: name, Status: resp.StatusCode, Duration: elapsed, Err: fmt.Errorf("decode response: %w", err)})
			return resp.StatusCode
		}
	}
	if env.Error != nil {
		r.steps = append(r.steps, step{Name: name, Status: resp.StatusCode, Duration: elapsed, Err: fmt.Errorf("%s: %s", env.Error.Code, env.Error.Message)})
		return resp.StatusCode
	}
	if out != nil && env.Data != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			r.steps = append(r.steps, step{Name: name, Status: resp.StatusCode, Duration: elapsed, Err: fmt.Errorf("decode data: %w", err)})
			return resp.StatusCode
		}
	}

	r.steps = append(r.steps, step{Name: name, Status: resp.StatusCode, Duration: elapsed})
	return resp.StatusCode
}

func (r *runner) register(email string) string {
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	r.do("register", http.MethodPost, "/auth/register", "", map[string]string{
		"email":     email,
		"password":  "smoke-test-password",
		"full_name": "Smoke Test",
	}, nil)
	status := r.do("login", http.MethodPost, "/auth/login", "", map[string]string{
		"email":    email,
		"password": "smoke-test-password",
	}, &resp)
	if status != http.StatusOK || resp.AccessToken == "" {
		log.Fatalf("login failed, cannot continue")
	}
	return resp.AccessToken
}

func (r *runner) createProject(token string) string {
	monday := nextMonday(time.Now())
	var resp struct {
		ID string `json:"id"`
	}
	status := r.do("create project", http.MethodPost, "/projects", token, map[string]interface{}{
		"title":      "Smoke Test Playlist",
		"start_date": monday.Format("2006-01-02"),
		"end_date":   monday.AddDate(0, 0, 13).Format("2006-01-02"),
		"days_selected": []int{
			int(time.Monday), int(time.Wednesday), int(time.Friday),
		},
		"time_slots": []map[string]string{
			{"start": "09:00", "end": "10:00"},
		},
		"videos": []map[string]string{
			{"title": "Intro", "url": "https://videos.example.com/intro", "duration": "0:45:00"},
			{"title": "Deep Dive", "url": "https://videos.example.com/deep-dive", "duration": "1:30:00"},
		},
	}, &resp)
	if status != http.StatusCreated || resp.ID == "" {
		log.Fatalf("project creation failed, cannot continue")
	}
	return resp.ID
}

func (r *runner) fetchSchedule(token, projectID string) []json.RawMessage {
	var resp struct {
		Events []json.RawMessage `json:"events"`
	}
	r.do("fetch schedule", http.MethodGet, "/projects/"+projectID+"/schedule", token, nil, &resp)
	return resp.Events
}

func (r *runner) fetchStreak(token, projectID string) {
	r.do("fetch streak", http.MethodGet, "/projects/"+projectID+"/streak", token, nil, nil)
}

func (r *runner) deleteProject(token, projectID string) {
	r.do("delete project", http.MethodDelete, "/projects/"+projectID, token, nil, nil)
}

func nextMonday(from time.Time) time.Time {
	d := from
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func printReport(steps []step, eventCount int) {
	fmt.Println("Smoke Test Report")
	fmt.Println("=================")
	failed := 0
	for _, s := range steps {
		status := "OK"
		if s.Err != nil {
			status = "FAIL"
			failed++
		}
		fmt.Printf("[%s] %s\n", status, s.Name)
		fmt.Printf("  Status: %d (%s)\n", s.Status, s.Duration)
		if s.Err != nil {
			fmt.Printf("  Error: %v\n", s.Err)
		}
	}
	fmt.Printf("Scheduled events: %d\n", eventCount)
	fmt.Printf("Steps: %d, Failed: %d\n", len(steps), failed)
}
