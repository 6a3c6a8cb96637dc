package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Record kinds of the snapshot file.
const (
	kindUser  = "user"
	kindURL   = "url"
	kindVisit = "visit"
)

// SnapshotRecord is one JSON line of the snapshot file.
type SnapshotRecord struct {
	UUID string `json:"uuid"`
	Kind string `json:"kind"`
	ID   int64  `json:"id"`

	Login    string `json:"login,omitempty"`
	Password string `json:"password,omitempty"`
	Role     int    `json:"role_id,omitempty"`

	OriginalURL string `json:"url,omitempty"`
	ShortURL    string `json:"short_url,omitempty"`
	UserID      int64  `json:"user_id,omitempty"`

	VisitorIP string     `json:"visitor_ip,omitempty"`
	URLID     int64      `json:"url_id,omitempty"`
	VisitDate *time.Time `json:"visit_date,omitempty"`
}

// LoadSnapshot reads every record of filePath. A missing file yields no records.
func LoadSnapshot(filePath string) ([]SnapshotRecord, error) {
	file, err := os.Open(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer file.Close()

	var records []SnapshotRecord
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var rec SnapshotRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("snapshot line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return records, nil
}

// SaveSnapshot atomically replaces filePath with records, one JSON object per line.
// Records without a UUID get a fresh one.
func SaveSnapshot(filePath string, records []SnapshotRecord) error {
	tmp, err := os.CreateTemp(filepath.Dir(filePath), filepath.Base(filePath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	for i := range records {
		if records[i].UUID == "" {
			records[i].UUID = generateUUID()
		}
		if err := enc.Encode(&records[i]); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to encode snapshot: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	return os.Rename(tmp.Name(), filePath)
}

func generateUUID() string {
	return uuid.New().String()
}
