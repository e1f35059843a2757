package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Writer saves rendered documents under Dir.
type Writer struct {
	Dir string
}

// Save writes data to Dir/name, creating Dir if needed, and returns the path.
func (w Writer) Save(name string, data []byte) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}
	path := filepath.Join(w.Dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

func EstimateFileName(id uint) string { return fmt.Sprintf("estimate_%d.pdf", id) }

func JobCardFileName(id uint) string { return fmt.Sprintf("jobcard_%d.pdf", id) }

func InventoryFileName(at time.Time, ext string) string {
	return fmt.Sprintf("inventory_%s.%s", at.Format("20060102_150405"), ext)
}

func EstimatesFileName(from, to time.Time, ext string) string {
	return fmt.Sprintf("estimates_%s_%s.%s", from.Format("20060102"), to.Format("20060102"), ext)
}

func ServiceHistoryFileName(at time.Time) string {
	return fmt.Sprintf("service_history_%s.pdf", at.Format("20060102_150405"))
}
