package analysis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextRequestValidate(t *testing.T) {
	tests := []struct {
		name      string
		req       TextRequest
		wantField string
	}{
		{"valid", TextRequest{Text: "hello", ChatID: "sess_1", Mode: ModeComprehensive}, ""},
		{"empty text", TextRequest{ChatID: "sess_1", Mode: ModeQuick}, "Text"},
		{"missing chat id", TextRequest{Text: "hello", Mode: ModeQuick}, "ChatID"},
		{"bad mode", TextRequest{Text: "hello", ChatID: "sess_1", Mode: "thorough"}, "Mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
			assert.NotEmpty(t, verr.Message)
		})
	}
}

func TestFileRequestValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))

	valid := FileRequest{Path: path, ChatID: "sess_1", Mode: ModeDetailed}
	assert.NoError(t, valid.Validate())

	missing := FileRequest{Path: filepath.Join(t.TempDir(), "absent.txt"), ChatID: "sess_1", Mode: ModeQuick}
	var verr *ValidationError
	require.ErrorAs(t, missing.Validate(), &verr)
	assert.Equal(t, "Path", verr.Field)
}

func TestValidationErrorMessage(t *testing.T) {
	err := TextRequest{ChatID: "sess_1", Mode: ModeQuick}.Validate()
	assert.EqualError(t, err, "Validation error: Text is required")
}

func TestNormalizeAppliesDefaultMode(t *testing.T) {
	req := TextRequest{Text: "hello", ChatID: "sess_1"}
	req.normalize()
	assert.Equal(t, ModeComprehensive, req.Mode)
	assert.NoError(t, req.Validate())
}
