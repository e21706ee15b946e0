package wrappers

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookPathMissingBinary(t *testing.T) {
	err := lookPath("definitely-not-an-installed-analyzer")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrToolUnavailable))
}

func TestWithWorkDirCleansUp(t *testing.T) {
	var captured string
	err := withWorkDir("wrapper-test-", func(dir string) error {
		captured = dir
		_, err := os.Stat(dir)
		return err
	})
	require.NoError(t, err)

	_, err = os.Stat(captured)
	assert.True(t, os.IsNotExist(err), "work dir should be removed")
}

func TestWithWorkDirCleansUpOnError(t *testing.T) {
	sentinel := errors.New("run failed")
	var captured string
	err := withWorkDir("wrapper-test-", func(dir string) error {
		captured = dir
		return sentinel
	})
	assert.True(t, errors.Is(err, sentinel))

	_, statErr := os.Stat(captured)
	assert.True(t, os.IsNotExist(statErr))
}

func TestAdapterLanguageContracts(t *testing.T) {
	assert.Equal(t, []string{LanguageAuto}, (&SemgrepWrapper{}).Languages())
	assert.Equal(t, []string{"python"}, (&BanditWrapper{}).Languages())
	assert.Equal(t, []string{"java"}, (&SpotBugsWrapper{}).Languages())
	assert.Contains(t, (&CodeQLWrapper{}).Languages(), "c")
	assert.Contains(t, (&CodeQLWrapper{}).Languages(), "java")
}

func TestAdapterNames(t *testing.T) {
	for _, tool := range []Tool{
		&CodeQLWrapper{}, &SpotBugsWrapper{}, &BanditWrapper{}, &SemgrepWrapper{},
	} {
		assert.NotEmpty(t, tool.Name())
	}
}
