package http

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizePath_SizeLimit(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"Under Limit", MaxPathSize - 1, false},
		{"Exact Limit", MaxPathSize, false},
		{"Over Limit", MaxPathSize + 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SanitizePath(strings.Repeat("1", tt.size))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrPathTooLarge)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizePath_ControlChars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Normal Path", "1*2*Jane Doe", "1*2*Jane Doe"},
		{"Kinyarwanda", "1*Mukamana Uwase", "1*Mukamana Uwase"},
		{"ANSI Code", "1*\x1b[31mRed", "1*[31mRed"},
		{"Null Byte", "1*Ja\x00ne", "1*Jane"},
		{"Newline", "1*Jane\r\n", "1*Jane"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizePath(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSanitizePath_InvalidUTF8(t *testing.T) {
	_, err := SanitizePath("1*\xff")
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestUSSD_RejectsOversizedText(t *testing.T) {
	ussd := &fakeUSSD{}
	w := postForm(NewHandler(ussd), "/ussd", url.Values{
		"sessionId": {"s"},
		"text":      {strings.Repeat("1*", MaxPathSize)},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, ussd.got)
}

func TestUSSD_StripsControlChars(t *testing.T) {
	ussd := &fakeUSSD{reply: "CON ok"}
	postForm(NewHandler(ussd), "/ussd", url.Values{"sessionId": {"s"}, "text": {"1*Ja\x00ne"}})

	require.Len(t, ussd.got, 1)
	assert.Equal(t, "1*Jane", ussd.got[0].Path)
}
