package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/srodi/topres/pkg/accumulate"
	"github.com/srodi/topres/pkg/sampler"
)

// DefaultPrefix names report files unless configured otherwise.
const DefaultPrefix = "top5_resources_output"

// fileTimeLayout is the timestamp embedded in report file names.
const fileTimeLayout = "2006-01-02_15-04-05"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Format selects the report encoding.
type Format string

// Supported report formats.
const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// ParseFormat accepts json, yaml, or yml in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return "", fmt.Errorf("unknown report format %q", s)
}

// Ext is the file extension written for the format.
func (f Format) Ext() string {
	return string(f)
}

// Entry is one averaged process in a report list.
type Entry struct {
	PID         string  `json:"PID" yaml:"PID"`
	Name        string  `json:"Service_Name" yaml:"Service_Name"`
	CPU         float64 `json:"CPU_Usage" yaml:"CPU_Usage"`
	Memory      float64 `json:"Memory_Usage" yaml:"Memory_Usage"`
	Appearances int     `json:"Appearances" yaml:"Appearances"`
}

// Document is the serialized run report.
type Document struct {
	GeneratedAt     time.Time `json:"Generated_At" yaml:"Generated_At"`
	Host            Host      `json:"Host" yaml:"Host"`
	Rounds          int       `json:"Rounds" yaml:"Rounds"`
	CompletedRounds int       `json:"Completed_Rounds" yaml:"Completed_Rounds"`
	Interval        string    `json:"Interval" yaml:"Interval"`
	TopN            int       `json:"Top_N" yaml:"Top_N"`
	TopCPU          []Entry   `json:"Top_CPU_Usage" yaml:"Top_CPU_Usage"`
	TopMemory       []Entry   `json:"Top_Memory_Usage" yaml:"Top_Memory_Usage"`
}

// Build converts a finished run into a report document.
func Build(res sampler.Result, host Host, now time.Time) Document {
	return Document{
		GeneratedAt:     now,
		Host:            host,
		Rounds:          res.Params.Rounds,
		CompletedRounds: res.Completed,
		Interval:        res.Params.Interval.String(),
		TopN:            res.Params.TopN,
		TopCPU:          entries(res.CPU),
		TopMemory:       entries(res.Memory),
	}
}

func entries(in []accumulate.Entry) []Entry {
	out := make([]Entry, 0, len(in))
	for _, e := range in {
		out = append(out, Entry{
			PID:         strconv.Itoa(e.ID.PID),
			Name:        e.Comm,
			CPU:         e.CPU,
			Memory:      e.Memory,
			Appearances: e.Appearances,
		})
	}
	return out
}

// Encode serializes doc in the requested format.
func Encode(doc Document, format Format) ([]byte, error) {
	switch format {
	case JSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case YAML:
		return yaml.Marshal(doc)
	}
	return nil, fmt.Errorf("unknown report format %q", format)
}

// FileName returns "<prefix>_<local timestamp>.<ext>".
func FileName(prefix string, now time.Time, format Format) string {
	return fmt.Sprintf("%s_%s.%s", prefix, now.Format(fileTimeLayout), format.Ext())
}

// Emitter writes report documents into a directory.
type Emitter struct {
	Dir    string
	Prefix string
	Format Format
	Logger *zap.Logger
}

// Emit encodes doc and writes it next to earlier reports, replacing the file atomically.
// It returns the written path.
func (e Emitter) Emit(doc Document) (string, error) {
	prefix := e.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	format := e.Format
	if format == "" {
		format = JSON
	}
	dir := e.Dir
	if dir == "" {
		dir = "."
	}

	data, err := Encode(doc, format)
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}
	path := filepath.Join(dir, FileName(prefix, doc.GeneratedAt, format))
	if err := writeFileAtomic(path, data); err != nil {
		return "", fmt.Errorf("writing report %s: %w", path, err)
	}
	if e.Logger != nil {
		e.Logger.Info("report written", zap.String("path", path), zap.Int("bytes", len(data)))
	}
	return path, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
