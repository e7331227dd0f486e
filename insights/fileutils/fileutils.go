package fileutils

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func Truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len([]rune(s)) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "…"
}

// ReportPrefix starts the name of every report file.
const ReportPrefix = "analisis_sentimiento_"

// ReportFiles are the output paths of one run. They share a base name.
type ReportFiles struct {
	Text     string `json:"text"`
	JSON     string `json:"json"`
	Markdown string `json:"markdown"`
}

// NewReportFiles names the report files for a run started at t inside dir, e.g.
// analisis_sentimiento_20250301_120000.txt. A numeric suffix is added when a report
// with the same base name already exists.
func NewReportFiles(dir string, t time.Time) ReportFiles {
	base := ReportPrefix + t.Format("20060102_150405")
	name := base
	for i := 2; ; i++ {
		rf := reportFiles(dir, name)
		if !FileExists(rf.Text) && !FileExists(rf.JSON) && !FileExists(rf.Markdown) {
			return rf
		}
		name = fmt.Sprintf("%s_%d", base, i)
	}
}

func reportFiles(dir, name string) ReportFiles {
	return ReportFiles{
		Text:     filepath.Join(dir, name+".txt"),
		JSON:     filepath.Join(dir, name+".json"),
		Markdown: filepath.Join(dir, name+".md"),
	}
}

func WriteTextFileAtomic(path string, text string) error {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if err := WriteFileAtomicSameDir(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write text: %w", err)
	}
	return nil
}

func WriteJSONFileAtomic(path string, v any, pretty bool) error {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if err := WriteFileAtomicSameDir(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// WriteFileAtomicSameDir writes data to a temp file next to path and renames it into
// place, so readers never see a partial file.
func WriteFileAtomicSameDir(path string, data []byte, mode fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp_"+filepath.Base(path)+"_*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// ReadText reads a UTF-8 text file, normalizing line endings.
func ReadText(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	s := strings.ReplaceAll(string(b), "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n"), nil
}
