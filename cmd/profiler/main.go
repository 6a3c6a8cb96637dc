package main

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

func main() {
	if len(os.Args) < 3 {
		log.Fatal("Usage: go run cmd/profiler/main.go <server_url> <profile_name>")
	}

	serverURL := strings.TrimRight(os.Args[1], "/")
	profileName := os.Args[2]

	log.Printf("Starting load generation for %s", serverURL)
	log.Printf("Profile will be saved as profiles/%s.pprof", profileName)

	var wg sync.WaitGroup
	stopChan := make(chan struct{})

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go generateLoad(serverURL, &wg, stopChan, i)
	}

	time.Sleep(5 * time.Second)

	log.Println("Collecting memory profile...")
	err := collectMemoryProfile(serverURL, profileName)
	if err != nil {
		log.Fatalf("Failed to collect memory profile: %v", err)
	}

	close(stopChan)
	wg.Wait()

	log.Printf("Profile saved to profiles/%s.pprof", profileName)
}

// newClient returns a client that reports redirects instead of following them.
func newClient() *http.Client {
	return &http.Client{
		Timeout: 5 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// generateLoad shortens a fresh URL and resolves the returned code, in a loop.
func generateLoad(serverURL string, wg *sync.WaitGroup, stopChan <-chan struct{}, workerID int) {
	defer wg.Done()

	client := newClient()

	counter := 0
	for {
		select {
		case <-stopChan:
			return
		default:
			form := url.Values{"url": {fmt.Sprintf("https://example.com/worker%d/url%d", workerID, counter)}}
			resp, err := client.PostForm(serverURL+"/url/", form)
			if err != nil {
				continue
			}
			resp.Body.Close()
			counter++

			// Location: /url/created/{code}
			if code := strings.TrimPrefix(resp.Header.Get("Location"), "/url/created/"); code != "" && resp.StatusCode == http.StatusFound {
				if r, err := client.Get(serverURL + "/url/" + code); err == nil {
					r.Body.Close()
				}
			}

			time.Sleep(10 * time.Millisecond)
		}
	}
}

func collectMemoryProfile(serverURL string, profileName string) error {
	err := os.MkdirAll("profiles", 0755)
	if err != nil {
		return fmt.Errorf("failed to create profiles directory: %w", err)
	}

	// /debug is served to the trusted subnet only
	resp, err := http.Get(serverURL + "/debug/pprof/heap")
	if err != nil {
		return fmt.Errorf("failed to get memory profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to get memory profile, status: %d", resp.StatusCode)
	}

	profilePath := fmt.Sprintf("profiles/%s.pprof", profileName)
	file, err := os.Create(profilePath)
	if err != nil {
		return fmt.Errorf("failed to create profile file: %w", err)
	}
	defer file.Close()

	_, err = io.Copy(file, resp.Body)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	return nil
}
