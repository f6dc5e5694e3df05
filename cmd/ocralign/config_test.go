package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardar/ocralign/pkg/align"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
threshold: 80
script: Latin
nfc: true
confusions: raw
workers: 3
top_confusions: 10
reference_encoding: windows-1255
gdocai:
  project_id: proj
  location: eu
  processor_id: abc
`)

	yc, err := loadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, yc.GDocAI)
	assert.Equal(t, "proj", yc.GDocAI.ProjectID)
	assert.Equal(t, "eu", yc.GDocAI.Location)
	assert.Equal(t, "abc", yc.GDocAI.ProcessorID)

	cfg := buildConfig(yc, options{})
	assert.Equal(t, 80, cfg.Threshold)
	assert.Equal(t, "Latin", cfg.Script)
	assert.True(t, cfg.NFC)
	assert.Equal(t, align.ConfusionsRaw, cfg.Confusions)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, 10, cfg.TopConfusions)
	assert.Equal(t, "windows-1255", referenceEncoding(yc, options{}))
}

func TestFlagsOverrideConfig(t *testing.T) {
	yc, err := loadConfig(writeConfig(t, "threshold: 80\nworkers: 3\nnfc: true\nreference_encoding: iso-8859-8\n"))
	require.NoError(t, err)

	o := options{
		set:         map[string]bool{"threshold": true, "nfc": true, "ref-encoding": true},
		threshold:   60,
		nfc:         false,
		workers:     99,
		refEncoding: "utf-8",
	}
	cfg := buildConfig(yc, o)
	assert.Equal(t, 60, cfg.Threshold)
	assert.False(t, cfg.NFC)
	assert.Equal(t, 3, cfg.Workers, "unset flags keep the file value")
	assert.Equal(t, "utf-8", referenceEncoding(yc, o))
}

func TestBuildConfigDefaults(t *testing.T) {
	assert.Equal(t, align.DefaultConfig(), buildConfig(nil, options{}))
	assert.Equal(t, "", referenceEncoding(nil, options{}))

	// A zero threshold in the file is an explicit value.
	yc, err := loadConfig(writeConfig(t, "threshold: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, buildConfig(yc, options{}).Threshold)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)

	_, err = loadConfig(writeConfig(t, "threshold: [1, 2"))
	assert.Error(t, err)
}
