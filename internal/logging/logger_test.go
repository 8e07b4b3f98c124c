package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bindery/internal/logging"
	"bindery/internal/services"
)

func TestNewWritesJSONToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "out.log")
	logger, err := logging.New(logging.Options{
		Level:       "debug",
		Format:      "json",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("book processed",
		logging.String(logging.FieldBookID, "book-1"),
		logging.Int(logging.FieldWorkCount, 3))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, data)
	}
	if record["msg"] != "book processed" {
		t.Fatalf("unexpected message %v", record["msg"])
	}
	if record["level"] != "info" {
		t.Fatalf("expected lowercase level, got %v", record["level"])
	}
	if record[logging.FieldBookID] != "book-1" {
		t.Fatalf("missing book id attr: %v", record)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestParseLevelFiltering(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "out.log")
	logger, err := logging.New(logging.Options{
		Level:       "warn",
		Format:      "text",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("suppressed")
	logger.Warn("emitted")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "suppressed") {
		t.Fatal("info line must be filtered at warn level")
	}
	if !strings.Contains(out, "emitted") {
		t.Fatal("warn line missing")
	}
}

func TestNewComponentLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "out.log")
	base, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logging.NewComponentLogger(base, "scanner").Info("hello")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"component":"scanner"`) {
		t.Fatalf("component attr missing: %s", data)
	}

	// A nil base must not panic and must stay silent.
	logging.NewComponentLogger(nil, "scanner").InfoContext(context.Background(), "dropped")
}

func TestWithContextDerivesAnnotationFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "out.log")
	base, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx := services.WithStage(services.WithBookID(context.Background(), "book-9"), "upsert")
	logging.WithContext(ctx, base).InfoContext(ctx, "annotated")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"book_id":"book-9"`) {
		t.Fatalf("book id attr missing: %s", out)
	}
	if !strings.Contains(out, `"stage":"upsert"`) {
		t.Fatalf("stage attr missing: %s", out)
	}

	// A bare context changes nothing.
	if got := logging.WithContext(context.Background(), base); got != base {
		t.Fatal("expected the base logger back for an unannotated context")
	}
}
