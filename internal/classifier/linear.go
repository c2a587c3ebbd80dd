package classifier

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/rajeshwari-s-9360/health-chatbot-with-prediction-and-calculation/internal/utils"
)

// NaiveBayes is a multinomial naive Bayes model over term weights.
type NaiveBayes struct {
	classes        Labels
	classLogPrior  []float64
	featureLogProb [][]float64
}

func decodeNaiveBayes(raw []byte, env envelope) (*NaiveBayes, error) {
	var doc struct {
		ClassLogPrior  []float64   `json:"class_log_prior"`
		FeatureLogProb [][]float64 `json:"feature_log_prob"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	n := len(env.Classes)
	if len(doc.ClassLogPrior) != n || len(doc.FeatureLogProb) != n {
		return nil, fmt.Errorf("expected %d class rows, got prior=%d feature_log_prob=%d",
			n, len(doc.ClassLogPrior), len(doc.FeatureLogProb))
	}
	if err := sameWidth(doc.FeatureLogProb, env.NFeatures); err != nil {
		return nil, err
	}
	return &NaiveBayes{
		classes:        env.Classes,
		classLogPrior:  doc.ClassLogPrior,
		featureLogProb: doc.FeatureLogProb,
	}, nil
}

func (m *NaiveBayes) Classes() Labels { return m.classes }

func (m *NaiveBayes) PredictProba(x Features) ([]float64, error) {
	if err := checkDim(x, len(m.featureLogProb[0])); err != nil {
		return nil, err
	}
	jll := make([]float64, len(m.classes))
	for c := range m.classes {
		score := m.classLogPrior[c]
		row := m.featureLogProb[c]
		x.Each(func(i int, v float64) { score += v * row[i] })
		jll[c] = score
	}
	return utils.Softmax(jll), nil
}

// Logistic is a fitted logistic regression. A single coefficient row is the
// binary case and is scored with a sigmoid.
type Logistic struct {
	classes   Labels
	coef      [][]float64
	intercept []float64
}

func decodeLogistic(raw []byte, env envelope) (*Logistic, error) {
	var doc struct {
		Coef      [][]float64 `json:"coef"`
		Intercept []float64   `json:"intercept"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	rows := len(doc.Coef)
	switch {
	case rows == 1 && len(env.Classes) != 2:
		return nil, fmt.Errorf("binary coefficients need 2 classes, got %d", len(env.Classes))
	case rows != 1 && rows != len(env.Classes):
		return nil, fmt.Errorf("expected %d coefficient rows, got %d", len(env.Classes), rows)
	case len(doc.Intercept) != rows:
		return nil, fmt.Errorf("expected %d intercepts, got %d", rows, len(doc.Intercept))
	}
	if err := sameWidth(doc.Coef, env.NFeatures); err != nil {
		return nil, err
	}
	return &Logistic{classes: env.Classes, coef: doc.Coef, intercept: doc.Intercept}, nil
}

func (m *Logistic) Classes() Labels { return m.classes }

func (m *Logistic) PredictProba(x Features) ([]float64, error) {
	if err := checkDim(x, len(m.coef[0])); err != nil {
		return nil, err
	}
	scores := make([]float64, len(m.coef))
	for k, row := range m.coef {
		z := m.intercept[k]
		x.Each(func(i int, v float64) { z += v * row[i] })
		scores[k] = z
	}
	if len(scores) == 1 {
		p := 1 / (1 + math.Exp(-scores[0]))
		return []float64{1 - p, p}, nil
	}
	return utils.Softmax(scores), nil
}

// Centroid classifies by cosine similarity to per-class centroids.
type Centroid struct {
	classes   Labels
	centroids [][]float64
}

func decodeCentroid(raw []byte, env envelope) (*Centroid, error) {
	var doc struct {
		Centroids [][]float64 `json:"centroids"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if len(doc.Centroids) != len(env.Classes) {
		return nil, fmt.Errorf("expected %d centroids, got %d", len(env.Classes), len(doc.Centroids))
	}
	if err := sameWidth(doc.Centroids, env.NFeatures); err != nil {
		return nil, err
	}
	return &Centroid{classes: env.Classes, centroids: doc.Centroids}, nil
}

func (m *Centroid) Classes() Labels { return m.classes }

func (m *Centroid) PredictProba(x Features) ([]float64, error) {
	if err := checkDim(x, len(m.centroids[0])); err != nil {
		return nil, err
	}
	dense := toDense(x)
	sims := make([]float64, len(m.centroids))
	for c, centroid := range m.centroids {
		sim, err := utils.CosineSimilarity(dense, centroid)
		if err != nil {
			return nil, err
		}
		sims[c] = sim
	}
	return utils.Softmax(sims), nil
}

// sameWidth checks that every row has the same non-zero width, and that it
// matches n when n is set.
func sameWidth(rows [][]float64, n int) error {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return fmt.Errorf("empty weight matrix")
	}
	width := len(rows[0])
	for i, row := range rows {
		if len(row) != width {
			return fmt.Errorf("row %d has %d columns, want %d", i, len(row), width)
		}
	}
	if n > 0 && n != width {
		return fmt.Errorf("n_features is %d but weights have %d columns", n, width)
	}
	return nil
}
