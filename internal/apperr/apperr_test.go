package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	base := New(NotFound, "Transcription not found")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"plain error", errors.New("boom"), Unexpected},
		{"direct", base, NotFound},
		{"wrapped", fmt.Errorf("get transcription: %w", base), NotFound},
		{"invalid", Invalid(Violation{Message: "x", Path: []string{"content"}}), Validation},
		{"missing config", MissingConfig("SPEECHMATICS_API_KEY"), Misconfigured},
		{"nil", nil, Unexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestSentinelIdentitySurvivesWrapping(t *testing.T) {
	sentinel := New(Conflict, "User already exists")
	err := fmt.Errorf("sign up: %w", Wrap(Conflict, "User already exists", sentinel))

	assert.ErrorIs(t, err, sentinel)

	ae, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, "User already exists", ae.Message)
}

func TestMissingConfigMessage(t *testing.T) {
	err := MissingConfig("SPEECHMATICS_API_KEY")
	assert.Equal(t, "SPEECHMATICS_API_KEY not configured", err.Message)
}

func TestUpstreamCarriesStatus(t *testing.T) {
	err := Upstreamf(403, "Error getting token from Speechmatics", "forbidden")

	assert.Equal(t, Upstream, err.Kind)
	assert.Equal(t, 403, err.Status)
	assert.Contains(t, err.Error(), "forbidden")
}
