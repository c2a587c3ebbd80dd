package recommend

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rajeshwari-s-9360/health-chatbot-with-prediction-and-calculation/internal/logger"
)

const (
	RecommendationsFile    = "recommendations.json"
	PACRecommendationsFile = "pac_recommendations.json"
	DiseasesFile           = "diseases.json"
	FAQsFile               = "faqs.json"

	FallbackAdvice = "Consult a doctor for more advice."
)

// ErrLookupFailed marks a recommendation that could not be found. Lookup
// methods swallow it and return the fallback advice.
var ErrLookupFailed = errors.New("recommendation lookup failed")

// Lookup reads recommendation and reference data from a directory. Every call
// re-reads the file so edits show up without a restart.
type Lookup struct {
	dir string
	log *logger.Logger
}

func NewLookup(dir string, log *logger.Logger) *Lookup {
	return &Lookup{dir: dir, log: log}
}

func Fallback() []string {
	return []string{FallbackAdvice}
}

// ChatRecs returns the advice for a predicted disease. It never returns an empty list.
func (l *Lookup) ChatRecs(label string) []string {
	recs, err := l.chatRecs(label)
	if err != nil {
		l.log.Debug("Using fallback chat recommendations", "label", label, "error", err)
		return Fallback()
	}
	return recs
}

// PACRecs returns the advice for a condition at a severity code. It never
// returns an empty list.
func (l *Lookup) PACRecs(condition string, severity int) []string {
	recs, err := l.pacRecs(condition, severity)
	if err != nil {
		l.log.Debug("Using fallback PAC recommendations", "condition", condition, "severity", severity, "error", err)
		return Fallback()
	}
	return recs
}

// Diseases returns the raw diseases document.
func (l *Lookup) Diseases() (json.RawMessage, error) {
	return l.rawDocument(DiseasesFile)
}

// FAQs returns the raw FAQ document.
func (l *Lookup) FAQs() (json.RawMessage, error) {
	return l.rawDocument(FAQsFile)
}

func (l *Lookup) chatRecs(label string) ([]string, error) {
	var table map[string][]string
	if err := l.readJSON(RecommendationsFile, &table); err != nil {
		return nil, err
	}
	key := strings.ToLower(label)
	recs := table[key]
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: no entry for %q", ErrLookupFailed, key)
	}
	return recs, nil
}

func (l *Lookup) pacRecs(condition string, severity int) ([]string, error) {
	var table map[string]map[string][]string
	if err := l.readJSON(PACRecommendationsFile, &table); err != nil {
		return nil, err
	}
	key := strings.ToLower(condition)
	recs := table[key][strconv.Itoa(severity)]
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: no entry for %q at severity %d", ErrLookupFailed, key, severity)
	}
	return recs, nil
}

func (l *Lookup) readJSON(name string, v any) error {
	raw, err := os.ReadFile(filepath.Join(l.dir, name))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrLookupFailed, name, err)
	}
	return nil
}

func (l *Lookup) rawDocument(name string) (json.RawMessage, error) {
	raw, err := os.ReadFile(filepath.Join(l.dir, name))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%s is not valid JSON", name)
	}
	return json.RawMessage(raw), nil
}
