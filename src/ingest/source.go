package ingest

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"incidentops/src/contracts"
	"incidentops/src/logger"
)

// FileSource produces alerts from a log file on disk.
type FileSource struct {
	path   string
	logger logger.Logger
	now    func() time.Time
}

// NewFileSource creates a source reading path.
func NewFileSource(path string, log logger.Logger) *FileSource {
	if log == nil {
		log = logger.NewSilentLogger()
	}
	return &FileSource{path: path, logger: log, now: time.Now}
}

// Path returns the log file the source reads.
func (s *FileSource) Path() string {
	return s.path
}

// Produce scans the log file. A missing file yields no alerts and no error.
func (s *FileSource) Produce(ctx context.Context) ([]contracts.AlertRecord, error) {
	s.logger.Info("[Monitor] Scanning %s for anomalies", s.path)

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Info("[Monitor] Log file not found at %s", s.path)
			return []contracts.AlertRecord{}, nil
		}
		return nil, errors.Wrapf(err, "open log file %s", s.path)
	}
	defer f.Close()

	alerts, err := Scan(f, s.now())
	if err != nil {
		return nil, errors.Wrapf(err, "read log file %s", s.path)
	}

	logSummary(s.logger, alerts)
	return alerts, nil
}

// TextSource produces alerts from log text held in memory.
type TextSource struct {
	text   string
	logger logger.Logger
	now    func() time.Time
}

// NewTextSource creates a source over text.
func NewTextSource(text string, log logger.Logger) *TextSource {
	if log == nil {
		log = logger.NewSilentLogger()
	}
	return &TextSource{text: text, logger: log, now: time.Now}
}

// Produce scans the text.
func (s *TextSource) Produce(ctx context.Context) ([]contracts.AlertRecord, error) {
	alerts, err := Scan(strings.NewReader(s.text), s.now())
	if err != nil {
		return nil, errors.Wrap(err, "read log text")
	}
	logSummary(s.logger, alerts)
	return alerts, nil
}

func logSummary(log logger.Logger, alerts []contracts.AlertRecord) {
	log.Info("[Monitor] Detected %d alerts", len(alerts))
	if len(alerts) == 0 {
		return
	}
	counts := CountByLevel(alerts)
	log.Info("[Monitor]   - %d ERROR(s)", counts[contracts.LevelError])
	log.Info("[Monitor]   - %d WARNING(s)", counts[contracts.LevelWarning])
}
