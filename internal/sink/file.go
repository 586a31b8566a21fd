package sink

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/marketlens/price-intel-scraper/internal/models"
)

// DumpRecords writes records wholesale as one JSON array of sink-shaped
// payloads. The file is replaced, not appended, so a dump always reflects
// exactly one run.
func DumpRecords(records []*models.CanonicalRecord, path string) error {
	payloads := make([]models.Payload, 0, len(records))
	for _, record := range records {
		payloads = append(payloads, record.ToPayload())
	}

	data, err := json.MarshalIndent(payloads, "", "  ")
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write records: %w", err)
	}
	return nil
}
