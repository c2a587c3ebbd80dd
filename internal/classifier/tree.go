package classifier

import (
	"encoding/json"
	"fmt"
)

const leaf = -1

type treeDoc struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

type tree struct {
	treeDoc
	nClasses int
}

func newTree(doc treeDoc, nClasses, nFeatures int) (*tree, error) {
	n := len(doc.ChildrenLeft)
	if n == 0 {
		return nil, fmt.Errorf("tree has no nodes")
	}
	if len(doc.ChildrenRight) != n || len(doc.Feature) != n || len(doc.Threshold) != n || len(doc.Value) != n {
		return nil, fmt.Errorf("tree arrays differ in length")
	}
	for i := 0; i < n; i++ {
		l, r := doc.ChildrenLeft[i], doc.ChildrenRight[i]
		if (l == leaf) != (r == leaf) {
			return nil, fmt.Errorf("node %d has only one child", i)
		}
		if l != leaf {
			if l <= i || l >= n || r <= i || r >= n {
				return nil, fmt.Errorf("node %d has out-of-range children", i)
			}
			if doc.Feature[i] < 0 || (nFeatures > 0 && doc.Feature[i] >= nFeatures) {
				return nil, fmt.Errorf("node %d splits on invalid feature %d", i, doc.Feature[i])
			}
			continue
		}
		if len(doc.Value[i]) != nClasses {
			return nil, fmt.Errorf("leaf %d has %d values for %d classes", i, len(doc.Value[i]), nClasses)
		}
	}
	return &tree{treeDoc: doc, nClasses: nClasses}, nil
}

// proba walks from the root to a leaf and returns its normalized class weights.
// Children always have larger indices than their parent, so the walk terminates.
func (t *tree) proba(x Features) ([]float64, error) {
	node := 0
	for t.ChildrenLeft[node] != leaf {
		f := t.Feature[node]
		if f >= x.Dim() {
			return nil, fmt.Errorf("tree splits on feature %d but input has %d", f, x.Dim())
		}
		if x.At(f) <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	weights := t.Value[node]
	var total float64
	for _, w := range weights {
		total += w
	}
	out := make([]float64, len(weights))
	for i, w := range weights {
		if total > 0 {
			out[i] = w / total
		} else {
			out[i] = 1 / float64(len(weights))
		}
	}
	return out, nil
}

// DecisionTree is a single fitted classification tree.
type DecisionTree struct {
	classes   Labels
	nFeatures int
	tree      *tree
}

func decodeDecisionTree(raw []byte, env envelope) (*DecisionTree, error) {
	var doc struct {
		Tree treeDoc `json:"tree"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	t, err := newTree(doc.Tree, len(env.Classes), env.NFeatures)
	if err != nil {
		return nil, err
	}
	return &DecisionTree{classes: env.Classes, nFeatures: env.NFeatures, tree: t}, nil
}

func (m *DecisionTree) Classes() Labels { return m.classes }

func (m *DecisionTree) PredictProba(x Features) ([]float64, error) {
	if err := checkDim(x, m.nFeatures); err != nil {
		return nil, err
	}
	return m.tree.proba(x)
}

// RandomForest averages the class probabilities of its trees.
type RandomForest struct {
	classes   Labels
	nFeatures int
	trees     []*tree
}

func decodeRandomForest(raw []byte, env envelope) (*RandomForest, error) {
	var doc struct {
		Estimators []treeDoc `json:"estimators"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if len(doc.Estimators) == 0 {
		return nil, fmt.Errorf("forest has no estimators")
	}
	trees := make([]*tree, 0, len(doc.Estimators))
	for i, est := range doc.Estimators {
		t, err := newTree(est, len(env.Classes), env.NFeatures)
		if err != nil {
			return nil, fmt.Errorf("estimator %d: %w", i, err)
		}
		trees = append(trees, t)
	}
	return &RandomForest{classes: env.Classes, nFeatures: env.NFeatures, trees: trees}, nil
}

func (m *RandomForest) Classes() Labels { return m.classes }

func (m *RandomForest) PredictProba(x Features) ([]float64, error) {
	if err := checkDim(x, m.nFeatures); err != nil {
		return nil, err
	}
	avg := make([]float64, len(m.classes))
	for _, t := range m.trees {
		p, err := t.proba(x)
		if err != nil {
			return nil, err
		}
		for i, v := range p {
			avg[i] += v
		}
	}
	for i := range avg {
		avg[i] /= float64(len(m.trees))
	}
	return avg, nil
}
