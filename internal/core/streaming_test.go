package core

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestWrapForStreaming_Encoding(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "file with BOM",
			input:    append([]byte{0xEF, 0xBB, 0xBF}, []byte("hello,world")...),
			expected: "hello,world",
		},
		{
			name:     "file without BOM",
			input:    []byte("hello,world"),
			expected: "hello,world",
		},
		{
			name:     "empty file",
			input:    []byte{},
			expected: "",
		},
		{
			name:     "only BOM",
			input:    []byte{0xEF, 0xBB, 0xBF},
			expected: "",
		},
		{
			name:     "BOM in the middle is kept",
			input:    []byte("a\xEF\xBB\xBFb"),
			expected: "a\ufeffb",
		},
		{
			name:     "invalid UTF-8 replaced",
			input:    []byte("caf\xE9,ok"),
			expected: "caf\ufffd,ok",
		},
		{
			name:     "multibyte preserved",
			input:    []byte("Café,日本"),
			expected: "Café,日本",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader, _ := WrapForStreaming(bytes.NewReader(tt.input), 0)
			result, err := io.ReadAll(reader)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestWrapForStreaming_CountsRawBytes(t *testing.T) {
	input := "\xEF\xBB\xBFRETAILER\nAcme\n"
	reader, counter := WrapForStreaming(strings.NewReader(input), 0)
	if _, err := io.ReadAll(reader); err != nil {
		t.Fatal(err)
	}
	if counter.BytesRead != int64(len(input)) {
		t.Errorf("BytesRead = %d, want %d", counter.BytesRead, len(input))
	}
}

func TestCountingReader_Limit(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		limit   int64
		wantErr bool
	}{
		{"no limit", 4096, 0, false},
		{"under limit", 100, 200, false},
		{"exactly at limit", 200, 200, false},
		{"over limit", 201, 200, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewCountingReader(strings.NewReader(strings.Repeat("x", tt.size)), tt.limit)
			_, err := io.ReadAll(r)
			if tt.wantErr {
				if !errors.Is(err, ErrFileTooLarge) {
					t.Errorf("error = %v, want ErrFileTooLarge", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if r.BytesRead != int64(tt.size) {
				t.Errorf("BytesRead = %d, want %d", r.BytesRead, tt.size)
			}
		})
	}
}
