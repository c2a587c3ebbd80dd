package recommend

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rajeshwari-s-9360/health-chatbot-with-prediction-and-calculation/internal/logger"
)

func newLookup(t *testing.T, files map[string]string) *Lookup {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return NewLookup(dir, logger.NewNop())
}

func TestPACRecsWithoutFileFallsBack(t *testing.T) {
	l := newLookup(t, nil)
	if got := l.PACRecs("diabetes", 2); !reflect.DeepEqual(got, []string{"Consult a doctor for more advice."}) {
		t.Fatalf("got %v", got)
	}
}

func TestChatRecs(t *testing.T) {
	l := newLookup(t, map[string]string{
		RecommendationsFile: `{"diabetes": ["Monitor blood sugar", "Exercise"], "flu": []}`,
	})
	if got := l.ChatRecs("Diabetes"); !reflect.DeepEqual(got, []string{"Monitor blood sugar", "Exercise"}) {
		t.Fatalf("expected case-insensitive hit, got %v", got)
	}
	for _, label := range []string{"flu", "migraine"} {
		if got := l.ChatRecs(label); !reflect.DeepEqual(got, Fallback()) {
			t.Fatalf("%s: expected fallback, got %v", label, got)
		}
	}
}

func TestPACRecs(t *testing.T) {
	l := newLookup(t, map[string]string{
		PACRecommendationsFile: `{"heart": {"0": ["Keep it up"], "2": ["See a cardiologist"]}}`,
	})
	if got := l.PACRecs("HEART", 2); !reflect.DeepEqual(got, []string{"See a cardiologist"}) {
		t.Fatalf("got %v", got)
	}
	if got := l.PACRecs("heart", 1); !reflect.DeepEqual(got, Fallback()) {
		t.Fatalf("missing severity: got %v", got)
	}
	if got := l.PACRecs("liver", 0); !reflect.DeepEqual(got, Fallback()) {
		t.Fatalf("missing condition: got %v", got)
	}
}

func TestMalformedFilesFallBack(t *testing.T) {
	l := newLookup(t, map[string]string{
		RecommendationsFile:    `{"diabetes": "not a list"}`,
		PACRecommendationsFile: `[`,
	})
	if got := l.ChatRecs("diabetes"); !reflect.DeepEqual(got, Fallback()) {
		t.Fatalf("got %v", got)
	}
	if got := l.PACRecs("diabetes", 0); !reflect.DeepEqual(got, Fallback()) {
		t.Fatalf("got %v", got)
	}
}

func TestFilesAreReadOnEveryCall(t *testing.T) {
	l := newLookup(t, map[string]string{RecommendationsFile: `{"flu": ["Rest"]}`})
	if got := l.ChatRecs("flu"); got[0] != "Rest" {
		t.Fatalf("got %v", got)
	}
	if err := os.WriteFile(filepath.Join(l.dir, RecommendationsFile), []byte(`{"flu": ["Drink fluids"]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := l.ChatRecs("flu"); got[0] != "Drink fluids" {
		t.Fatalf("expected the edited file to be used, got %v", got)
	}
}

func TestRawDocuments(t *testing.T) {
	l := newLookup(t, map[string]string{
		DiseasesFile: `[{"name": "Diabetes"}]`,
		FAQsFile:     `{"broken"`,
	})
	raw, err := l.Diseases()
	if err != nil || string(raw) != `[{"name": "Diabetes"}]` {
		t.Fatalf("Diseases: %s, %v", raw, err)
	}
	if _, err := l.FAQs(); err == nil {
		t.Fatal("expected error for invalid FAQ JSON")
	}

	empty := newLookup(t, nil)
	if _, err := empty.Diseases(); err == nil {
		t.Fatal("expected error for missing diseases file")
	}
}
