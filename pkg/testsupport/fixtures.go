package testsupport

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

//go:embed testdata/dataset.json
var defaultDataset []byte

// Dataset is the seed data shared by integration tests.
type Dataset struct {
	Accounts     []Account     `json:"accounts"`
	Users        []User        `json:"users"`
	Projects     []Project     `json:"projects"`
	ProjectUsers []ProjectUser `json:"projects_users"`
}

// DefaultDataset decodes the embedded seed data.
func DefaultDataset(t testing.TB) Dataset {
	t.Helper()

	var ds Dataset
	decodeJSON(t, "testdata/dataset.json", defaultDataset, &ds)
	return ds
}

// LoadFixture loads test data from a fixture file.
// The path is relative to the test package directory.
func LoadFixture(t testing.TB, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}

	return data
}

// LoadFixtureJSON loads JSON test data from a fixture file and unmarshals it.
// The path is relative to the test package directory.
func LoadFixtureJSON(t testing.TB, path string, dest any) {
	t.Helper()

	decodeJSON(t, path, LoadFixture(t, path), dest)
}

// FixturePath constructs a path to a fixture file relative to the testdata directory.
func FixturePath(filename string) string {
	return filepath.Join("testdata", filename)
}

func decodeJSON(t testing.TB, path string, data []byte, dest any) {
	t.Helper()

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		t.Fatalf("failed to unmarshal JSON fixture from %s: %v", path, err)
	}
}
