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
	"path/filepath"
	"strings"
	"time"
)

type seedTemplate struct {
	Name     string  `json:"name"`
	Standard int     `json:"standard"`
	MaxMarks int     `json:"max_marks"`
	ImageURL *string `json:"image_url,omitempty"`
}

type seedSubject struct {
	Subject       string `json:"subject"`
	StandardRange string `json:"standard_range"`
}

type seedSchool struct {
	Name      string         `json:"name"`
	Templates []seedTemplate `json:"templates"`
	Subjects  []seedSubject  `json:"subjects"`
}

type seedFile struct {
	Schools []seedSchool `json:"schools"`
}

type envelope struct {
	Data json.RawMessage `json:"data"`
	Err  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	var (
		base     string
		seedPath string
		timeout  time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "Poster API base URL")
	flag.StringVar(&seedPath, "file", filepath.Join("scripts", "seed-catalog", "catalog.json"), "Path to catalog seed file")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.Parse()

	data, err := os.ReadFile(seedPath)
	if err != nil {
		log.Fatalf("failed to read seed file: %v", err)
	}
	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		log.Fatalf("failed to parse seed file: %v", err)
	}
	if len(seed.Schools) == 0 {
		log.Fatalf("no schools defined in %s", seedPath)
	}

	client := &http.Client{Timeout: timeout}
	base = strings.TrimRight(base, "/")
	failures := 0

	for _, school := range seed.Schools {
		schoolID, err := createSchool(client, base, school.Name)
		if err != nil {
			log.Printf("school %q: %v", school.Name, err)
			failures++
			continue
		}
		fmt.Printf("school %q -> %s\n", school.Name, schoolID)

		for _, tpl := range school.Templates {
			if err := createTemplate(client, base, schoolID, tpl); err != nil {
				log.Printf("template %q: %v", tpl.Name, err)
				failures++
				continue
			}
			fmt.Printf("  template %q (std %d, max %d)\n", tpl.Name, tpl.Standard, tpl.MaxMarks)
		}
		for _, sub := range school.Subjects {
			if err := createSubject(client, base, schoolID, sub); err != nil {
				log.Printf("subject %q: %v", sub.Subject, err)
				failures++
				continue
			}
			fmt.Printf("  subject %q (standards %s)\n", sub.Subject, sub.StandardRange)
		}
	}

	if failures > 0 {
		fmt.Printf("Seed finished with %d failures\n", failures)
		os.Exit(1)
	}
	fmt.Println("Seed finished")
}

func createSchool(client *http.Client, base, name string) (string, error) {
	payload := map[string]interface{}{"name": name}
	raw, err := post(client, base+"/api/v1/schools", payload)
	if err != nil {
		return "", err
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &created); err != nil {
		return "", fmt.Errorf("decode school response: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("school response carried no id")
	}
	return created.ID, nil
}

func createTemplate(client *http.Client, base, schoolID string, tpl seedTemplate) error {
	payload := map[string]interface{}{
		"school_id": schoolID,
		"name":      tpl.Name,
		"standard":  tpl.Standard,
		"max_marks": tpl.MaxMarks,
	}
	if tpl.ImageURL != nil {
		payload["image_url"] = *tpl.ImageURL
	}
	_, err := post(client, base+"/api/v1/templates", payload)
	return err
}

func createSubject(client *http.Client, base, schoolID string, sub seedSubject) error {
	payload := map[string]interface{}{
		"school_id":      schoolID,
		"subject":        sub.Subject,
		"standard_range": sub.StandardRange,
	}
	_, err := post(client, base+"/api/v1/subjects", payload)
	return err
}

func post(client *http.Client, url string, payload interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("status %d: unexpected body", resp.StatusCode)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		if env.Err != nil {
			return nil, fmt.Errorf("status %d: %s (%s)", resp.StatusCode, env.Err.Message, env.Err.Code)
		}
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return env.Data, nil
}
