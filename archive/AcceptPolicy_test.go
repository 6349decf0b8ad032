package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZipPolicy_Accepts(t *testing.T) {
	policy := ZipPolicy()

	testCases := []struct {
		name        string
		contentType string
		expected    bool
	}{
		{"code.zip", "", true},
		{"CODE.ZIP", "application/octet-stream", true},
		{"path/to/code.zip", "", true},
		{`C:\Users\me\code.zip`, "", true},
		{"upload.bin", "application/zip", true},
		{"upload.bin", "application/x-zip-compressed", true},
		{"upload.bin", "Application/Zip; charset=binary", true},
		{"code.tar.gz", "application/gzip", false},
		{"code.zip.txt", "text/plain", false},
		{"main.py", "", false},
		{"", "", false},
	}

	for _, tc := range testCases {
		result := policy.Accepts(tc.name, tc.contentType)
		if result != tc.expected {
			t.Errorf("Accepts(%q, %q) = %v; want %v", tc.name, tc.contentType, result, tc.expected)
		}
	}
}

func TestPickTakesFirstAcceptedCandidate(t *testing.T) {
	policy := ZipPolicy()

	index, err := policy.Pick([]Candidate{
		{Name: "notes.txt", ContentType: "text/plain"},
		{Name: "first.zip"},
		{Name: "second.zip"},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, index)
}

func TestPickRejectsWhenNothingAccepted(t *testing.T) {
	index, err := ZipPolicy().Pick([]Candidate{{Name: "main.go"}})
	assert.ErrorIs(t, err, ErrNoAcceptedFile)
	assert.Equal(t, -1, index)

	_, err = ZipPolicy().Pick(nil)
	assert.ErrorIs(t, err, ErrNoAcceptedFile)
}

func TestNewAcceptPolicyRejectsBadPattern(t *testing.T) {
	_, err := NewAcceptPolicy([]string{"[*.zip"}, nil)
	assert.Error(t, err)
}
