package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateService_Unknown(t *testing.T) {
	for _, name := range []string{"", "JOBS", "jobs2", "unknown"} {
		err := ValidateService(name, DefaultServices)
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, ErrUnknownService))
		for _, s := range DefaultServices {
			assert.Contains(t, err.Error(), s)
		}
	}
}

func TestValidateService_Known(t *testing.T) {
	for _, s := range DefaultServices {
		assert.NoError(t, ValidateService(s, DefaultServices))
	}
}

func TestValidateVersions(t *testing.T) {
	tests := []struct {
		version string
		valid   bool
	}{
		{"1.0.0", true},
		{"0.0.0", true},
		{"10.200.3000", true},
		{"01.2.3", true},
		{"1.0", false},
		{"v1.0.0", false},
		{"1.0.0-rc1", false},
		{"1.0.0.0", false},
		{"1..0", false},
		{"", false},
		{" 1.0.0", false},
		{"1.0.0\n", false},
	}

	for _, tt := range tests {
		err := ValidateVersions(tt.version)
		if tt.valid {
			assert.NoError(t, err, tt.version)
			continue
		}
		assert.ErrorIs(t, err, ErrInvalidVersionFormat, tt.version)
	}
}

func TestValidateVersions_StopsAtFirstInvalid(t *testing.T) {
	err := ValidateVersions("1.0.0", "bad", "2.0.0")
	require.ErrorIs(t, err, ErrInvalidVersionFormat)
	assert.Contains(t, err.Error(), `"bad"`)
}

func TestBuildKey(t *testing.T) {
	got := BuildKey("assistant_versions", "1.0.0", "jobs", "2.3.1", "jobs.tar")
	assert.Equal(t, "assistant_versions/1.0.0/jobs/2.3.1/jobs.tar", got)
}

func TestBackendError_Unwrap(t *testing.T) {
	cause := errors.New("access denied")
	err := error(&BackendError{Op: "list", Err: cause})

	assert.ErrorIs(t, err, cause)

	var be *BackendError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "list", be.Op)
	assert.Equal(t, "backend list: access denied", err.Error())
}
