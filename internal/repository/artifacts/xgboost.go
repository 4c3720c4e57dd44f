package artifacts

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

var supportedObjectives = map[string]struct{}{
	"reg:squarederror":     {},
	"reg:linear":           {},
	"reg:pseudohubererror": {},
	"reg:absoluteerror":    {},
}

// ErrFeatureCount is returned by Predict for a vector of the wrong length.
var ErrFeatureCount = errors.New("feature vector length does not match the model")

type tree struct {
	left, right []int
	splitIndex  []int
	splitCond   []float32 // leaf value on leaf nodes
	defaultLeft []bool
	weight      float32
}

// Booster evaluates an XGBoost gradient boosted tree ensemble saved in the
// JSON model format. Thresholds, leaves and the margin are float32, as in
// XGBoost. It is immutable and safe for concurrent use.
type Booster struct {
	trees       []tree
	baseScore   float32
	numFeatures int
	names       []string
	objective   string
}

// ParseBooster decodes an XGBoost JSON model.
func ParseBooster(data []byte) (*Booster, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("booster is not a JSON model")
	}
	learner := gjson.GetBytes(data, "learner")
	if !learner.Exists() {
		return nil, errors.New("booster has no learner section")
	}

	objective := learner.Get("objective.name").String()
	if _, ok := supportedObjectives[objective]; !ok {
		return nil, fmt.Errorf("unsupported objective %q", objective)
	}

	params := learner.Get("learner_model_param")
	if t := params.Get("num_target"); t.Exists() && parseNumber(t) != 1 {
		return nil, fmt.Errorf("multi-target boosters are not supported")
	}

	base := parseNumber(params.Get("base_score"))
	if math.IsNaN(base) {
		return nil, fmt.Errorf("invalid base_score %q", params.Get("base_score").String())
	}
	b := &Booster{
		baseScore:   float32(base),
		numFeatures: int(parseNumber(params.Get("num_feature"))),
		objective:   objective,
	}
	for _, n := range learner.Get("feature_names").Array() {
		b.names = append(b.names, n.String())
	}

	gb := learner.Get("gradient_booster")
	var model gjson.Result
	var weights []gjson.Result
	switch name := gb.Get("name").String(); name {
	case "gbtree":
		model = gb.Get("model")
	case "dart":
		model = gb.Get("gbtree.model")
		weights = gb.Get("weight_drop").Array()
	default:
		return nil, fmt.Errorf("unsupported booster %q", name)
	}

	rawTrees := model.Get("trees").Array()
	if len(rawTrees) == 0 {
		return nil, errors.New("booster has no trees")
	}
	for i, rt := range rawTrees {
		t, err := parseTree(rt, b.numFeatures)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		t.weight = 1
		if i < len(weights) {
			t.weight = float32(weights[i].Float())
		}
		b.trees = append(b.trees, t)
	}
	return b, nil
}

func parseTree(rt gjson.Result, numFeatures int) (tree, error) {
	ints := func(key string) []int {
		arr := rt.Get(key).Array()
		out := make([]int, len(arr))
		for i, v := range arr {
			out[i] = int(v.Int())
		}
		return out
	}

	t := tree{
		left:       ints("left_children"),
		right:      ints("right_children"),
		splitIndex: ints("split_indices"),
	}
	for _, v := range rt.Get("split_conditions").Array() {
		t.splitCond = append(t.splitCond, float32(v.Float()))
	}
	for _, v := range rt.Get("default_left").Array() {
		t.defaultLeft = append(t.defaultLeft, v.Bool())
	}

	n := len(t.left)
	if n == 0 {
		return t, errors.New("empty tree")
	}
	if len(t.right) != n || len(t.splitIndex) != n || len(t.splitCond) != n || len(t.defaultLeft) != n {
		return t, errors.New("node arrays differ in length")
	}
	for i := 0; i < n; i++ {
		if t.left[i] == -1 {
			continue
		}
		if t.left[i] <= i || t.left[i] >= n || t.right[i] <= i || t.right[i] >= n {
			return t, fmt.Errorf("node %d has invalid children", i)
		}
		if t.splitIndex[i] < 0 || (numFeatures > 0 && t.splitIndex[i] >= numFeatures) {
			return t, fmt.Errorf("node %d splits on unknown feature %d", i, t.splitIndex[i])
		}
	}
	return t, nil
}

// parseNumber reads a number that may be encoded as a string such as "5E-1"
// or "[5E-1]".
func parseNumber(v gjson.Result) float64 {
	if v.Type == gjson.Number {
		return v.Float()
	}
	s := strings.Trim(strings.TrimSpace(v.String()), "[]")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// Predict returns the regression output for one feature vector. Inputs are
// rounded to float32 before each split comparison. NaN inputs follow each
// split's default direction.
func (b *Booster) Predict(features []float64) (float64, error) {
	if len(features) != b.numFeatures {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrFeatureCount, len(features), b.numFeatures)
	}
	sum := b.baseScore
	for i := range b.trees {
		sum += b.trees[i].weight * b.trees[i].eval(features)
	}
	return float64(sum), nil
}

func (t *tree) eval(x []float64) float32 {
	node := 0
	for t.left[node] != -1 {
		v := x[t.splitIndex[node]]
		switch {
		case math.IsNaN(v):
			if t.defaultLeft[node] {
				node = t.left[node]
			} else {
				node = t.right[node]
			}
		case float32(v) < t.splitCond[node]:
			node = t.left[node]
		default:
			node = t.right[node]
		}
	}
	return t.splitCond[node]
}

func (b *Booster) NumFeatures() int { return b.numFeatures }

// FeatureNames returns the names stored in the model, or nil.
func (b *Booster) FeatureNames() []string {
	return append([]string(nil), b.names...)
}

func (b *Booster) Objective() string { return b.objective }

func (b *Booster) NumTrees() int { return len(b.trees) }
