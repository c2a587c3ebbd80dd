package classifier

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

// tokenPattern matches runs of two or more word characters.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Vectorizer turns free text into a sparse term-weight vector using a fixed
// vocabulary.
type Vectorizer struct {
	vocabulary  map[string]int
	idf         []float64
	lowercase   bool
	ngramMin    int
	ngramMax    int
	sublinearTF bool
	binary      bool
	norm        string
	dim         int
}

type vectorizerDoc struct {
	Kind        string          `json:"kind"`
	Vocabulary  map[string]int  `json:"vocabulary"`
	IDF         []float64       `json:"idf"`
	Lowercase   *bool           `json:"lowercase"`
	NgramRange  []int           `json:"ngram_range"`
	SublinearTF bool            `json:"sublinear_tf"`
	Binary      bool            `json:"binary"`
	Norm        json.RawMessage `json:"norm"`
}

// DecodeVectorizer parses a tfidf or count vectorizer artifact.
func DecodeVectorizer(raw []byte) (*Vectorizer, error) {
	var doc vectorizerDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("invalid vectorizer: %w", err)
	}
	if doc.Kind != KindTfidf && doc.Kind != KindCount {
		return nil, fmt.Errorf("unsupported vectorizer kind %q", doc.Kind)
	}
	if len(doc.Vocabulary) == 0 {
		return nil, fmt.Errorf("vectorizer has an empty vocabulary")
	}

	v := &Vectorizer{
		vocabulary:  doc.Vocabulary,
		lowercase:   true,
		ngramMin:    1,
		ngramMax:    1,
		sublinearTF: doc.SublinearTF,
		binary:      doc.Binary,
	}
	if doc.Lowercase != nil {
		v.lowercase = *doc.Lowercase
	}
	if len(doc.NgramRange) == 2 {
		v.ngramMin, v.ngramMax = doc.NgramRange[0], doc.NgramRange[1]
	} else if len(doc.NgramRange) != 0 {
		return nil, fmt.Errorf("ngram_range must have two entries")
	}
	if v.ngramMin < 1 || v.ngramMax < v.ngramMin {
		return nil, fmt.Errorf("invalid ngram_range [%d, %d]", v.ngramMin, v.ngramMax)
	}

	maxCol := -1
	for term, col := range doc.Vocabulary {
		if col < 0 {
			return nil, fmt.Errorf("term %q has negative column %d", term, col)
		}
		if col > maxCol {
			maxCol = col
		}
	}
	v.dim = maxCol + 1

	if doc.Kind == KindTfidf {
		v.norm = "l2"
		if len(doc.IDF) < v.dim {
			return nil, fmt.Errorf("idf has %d entries for %d columns", len(doc.IDF), v.dim)
		}
		v.idf = doc.IDF
		v.dim = len(doc.IDF)
	}
	// An explicit null means no normalization; a missing key keeps the default.
	if len(doc.Norm) > 0 {
		if string(doc.Norm) == "null" {
			v.norm = ""
		} else if err := json.Unmarshal(doc.Norm, &v.norm); err != nil {
			return nil, fmt.Errorf("invalid norm: %w", err)
		}
	}
	switch v.norm {
	case "", "l1", "l2":
	default:
		return nil, fmt.Errorf("unsupported norm %q", v.norm)
	}
	return v, nil
}

// Dim is the width of the vectors Transform produces.
func (v *Vectorizer) Dim() int { return v.dim }

// Transform vectorizes one document.
func (v *Vectorizer) Transform(text string) Sparse {
	if v.lowercase {
		text = strings.ToLower(text)
	}
	tokens := tokenPattern.FindAllString(text, -1)

	counts := make(map[int]float64)
	for n := v.ngramMin; n <= v.ngramMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			term := tokens[i]
			if n > 1 {
				term = strings.Join(tokens[i:i+n], " ")
			}
			if col, ok := v.vocabulary[term]; ok {
				counts[col]++
			}
		}
	}

	indices := make([]int, 0, len(counts))
	for col := range counts {
		indices = append(indices, col)
	}
	sort.Ints(indices)

	values := make([]float64, len(indices))
	for k, col := range indices {
		tf := counts[col]
		switch {
		case v.binary:
			tf = 1
		case v.sublinearTF:
			tf = 1 + math.Log(tf)
		}
		if v.idf != nil {
			tf *= v.idf[col]
		}
		values[k] = tf
	}
	normalize(values, v.norm)
	return Sparse{N: v.dim, Indices: indices, Values: values}
}

func normalize(values []float64, norm string) {
	var total float64
	switch norm {
	case "l2":
		for _, x := range values {
			total += x * x
		}
		total = math.Sqrt(total)
	case "l1":
		for _, x := range values {
			total += math.Abs(x)
		}
	default:
		return
	}
	if total == 0 {
		return
	}
	for i := range values {
		values[i] /= total
	}
}
