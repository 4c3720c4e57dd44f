package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"FinSimples/internal/repository/artifacts"
	"FinSimples/internal/services/features"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stumpModel = `{"learner":{
  "gradient_booster":{"name":"gbtree","model":{"trees":[
    {"left_children":[-1],"right_children":[-1],"split_indices":[0],"split_conditions":[0.3],"default_left":[0]}
  ]}},
  "learner_model_param":{"base_score":"1E-1","num_feature":"9","num_target":"1"},
  "objective":{"name":"reg:squarederror"}}}`

func TestSpecCommandWritesLoadableSpec(t *testing.T) {
	dir := t.TempDir()
	booster := filepath.Join(dir, "modelo_xgb.json")
	spec := filepath.Join(dir, "feature_spec.yaml")
	require.NoError(t, os.WriteFile(booster, []byte(stumpModel), 0o600))
	t.Setenv("BOOSTER_PATH", booster)
	t.Setenv("FEATURE_SPEC_PATH", spec)

	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"spec", "--env", filepath.Join(dir, "absent.env"), "--version", "7"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "9 features")

	store := artifacts.NewStore(booster, spec, artifacts.WithPipelineFeatures(features.NewExtractor().FeatureNames()))
	bundle, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "7", bundle.Spec.Version)
	assert.Equal(t, artifacts.SHA256Hex([]byte(stumpModel)), bundle.Spec.BoosterSHA256)

	v, err := bundle.Regressor.Predict(make([]float64, 9))
	require.NoError(t, err)
	assert.InDelta(t, 0.4, v, 1e-6)
}

func TestSpecCommandRejectsMismatchedBooster(t *testing.T) {
	dir := t.TempDir()
	booster := filepath.Join(dir, "modelo_xgb.json")
	model := bytes.Replace([]byte(stumpModel), []byte(`"num_feature":"9"`), []byte(`"num_feature":"3"`), 1)
	require.NoError(t, os.WriteFile(booster, model, 0o600))
	t.Setenv("BOOSTER_PATH", booster)
	t.Setenv("FEATURE_SPEC_PATH", filepath.Join(dir, "feature_spec.yaml"))

	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"spec", "--env", filepath.Join(dir, "absent.env")})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline provides 9")
}
