package ingest

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

func TestBOMSkippingReader(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "leading BOM dropped",
			input:    append([]byte{0xEF, 0xBB, 0xBF}, "name,value"...),
			expected: "name,value",
		},
		{
			name:     "no BOM",
			input:    []byte("name,value"),
			expected: "name,value",
		},
		{
			name:     "empty",
			input:    []byte{},
			expected: "",
		},
		{
			name:     "BOM only",
			input:    []byte{0xEF, 0xBB, 0xBF},
			expected: "",
		},
		{
			name:     "partial BOM kept",
			input:    []byte{0xEF, 0xBB, 'a'},
			expected: string([]byte{0xEF, 0xBB, 'a'}),
		},
		{
			name:     "BOM mid-stream kept",
			input:    append([]byte("a"), 0xEF, 0xBB, 0xBF),
			expected: string(append([]byte("a"), 0xEF, 0xBB, 0xBF)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := io.ReadAll(NewBOMSkippingReader(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestUTF8Sanitizer(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{"ascii", []byte("a,b\n1,2"), "a,b\n1,2"},
		{"multibyte kept", []byte("café,Zürich"), "café,Zürich"},
		{"invalid byte", []byte{'h', 'e', 0x80, 'l', 'o'}, "he?lo"},
		{"truncated sequence at end", []byte{'o', 'k', 0xC3}, "ok?"},
		{"latin-1 text", []byte{'M', 0xFC, 'l', 'l', 'e', 'r'}, "M?ller"},
		{"empty", []byte{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := io.ReadAll(NewUTF8Sanitizer(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestUTF8Sanitizer_SplitAcrossReads(t *testing.T) {
	input := []byte("ab€cd")
	r := NewUTF8Sanitizer(iotest.OneByteReader(bytes.NewReader(input)))

	var out []byte
	buf := make([]byte, 2)
	for {
		n, err := r.Read(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if string(out) != "ab€cd" {
		t.Errorf("got %q, want %q", out, "ab€cd")
	}
}

func TestCountingReader(t *testing.T) {
	input := strings.Repeat("x", 1000)
	r := NewCountingReader(strings.NewReader(input), 0)

	buf := make([]byte, 100)
	total := 0
	for {
		n, err := r.Read(buf)
		total += n
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if total != len(input) {
		t.Errorf("total read = %d, want %d", total, len(input))
	}
	if r.BytesRead != int64(len(input)) {
		t.Errorf("BytesRead = %d, want %d", r.BytesRead, len(input))
	}
}

func TestCountingReader_Limit(t *testing.T) {
	r := NewCountingReader(strings.NewReader(strings.Repeat("x", 100)), 10)

	_, err := io.ReadAll(r)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("got %v, want ErrFileTooLarge", err)
	}
}

func TestWrapForStreaming(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, 'h', 'e', 0x80, 'l', 'o')

	got, err := io.ReadAll(WrapForStreaming(bytes.NewReader(input), 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "he?lo" {
		t.Errorf("got %q, want %q", got, "he?lo")
	}
}

func TestWrapForStreaming_LimitSurfaces(t *testing.T) {
	_, err := io.ReadAll(WrapForStreaming(strings.NewReader(strings.Repeat("a,b\n", 100)), 16))
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("got %v, want ErrFileTooLarge", err)
	}
}
