package artifacts

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"FinSimples/internal/domain/models"

	"gopkg.in/yaml.v3"
)

// ReadFeatureSpec decodes the YAML feature spec at path.
func ReadFeatureSpec(path string) (models.FeatureSpec, error) {
	var spec models.FeatureSpec
	b, err := os.ReadFile(path)
	if err != nil {
		return spec, err
	}
	if err := yaml.Unmarshal(b, &spec); err != nil {
		return spec, fmt.Errorf("parse feature spec: %w", err)
	}
	return spec, nil
}

// WriteFeatureSpec writes spec as YAML, replacing path atomically.
func WriteFeatureSpec(path string, spec models.FeatureSpec) error {
	if err := ValidateSpec(spec); err != nil {
		return err
	}
	b, err := yaml.Marshal(spec)
	if err != nil {
		return fmt.Errorf("encode feature spec: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create spec dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write feature spec: %w", err)
	}
	return os.Rename(tmp, path)
}

// ValidateSpec checks the spec on its own.
func ValidateSpec(spec models.FeatureSpec) error {
	if len(spec.Features) == 0 {
		return errors.New("feature spec lists no features")
	}
	seen := make(map[string]struct{}, len(spec.Features))
	for _, f := range spec.Features {
		if strings.TrimSpace(f) == "" {
			return errors.New("feature spec has a blank feature name")
		}
		if _, dup := seen[f]; dup {
			return fmt.Errorf("feature spec lists %q twice", f)
		}
		seen[f] = struct{}{}
	}
	return nil
}

// SHA256Hex returns the lower-case hex digest of data.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// checkCompatible verifies that the booster and the spec were produced
// together. pipeline, when non-nil, must equal the spec's feature list.
func checkCompatible(spec models.FeatureSpec, booster *Booster, boosterDigest string, pipeline []string) error {
	if err := ValidateSpec(spec); err != nil {
		return err
	}
	if spec.BoosterSHA256 != "" && !strings.EqualFold(spec.BoosterSHA256, boosterDigest) {
		return fmt.Errorf("booster checksum %s does not match feature spec %s", boosterDigest, spec.BoosterSHA256)
	}
	if booster.NumFeatures() != len(spec.Features) {
		return fmt.Errorf("booster expects %d features, feature spec lists %d", booster.NumFeatures(), len(spec.Features))
	}
	if names := booster.FeatureNames(); len(names) > 0 && !slices.Equal(names, spec.Features) {
		return fmt.Errorf("booster feature names %v differ from feature spec %v", names, spec.Features)
	}
	if pipeline != nil && !slices.Equal(pipeline, spec.Features) {
		return fmt.Errorf("feature spec %v does not match the pipeline columns %v", spec.Features, pipeline)
	}
	return nil
}
