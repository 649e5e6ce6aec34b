package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"url with path", "http://acme.co/post/1", "acme.co"},
		{"https with port", "https://leaks.example.org:8443/x", "leaks.example.org:8443"},
		{"bare host", "acme.co", "acme.co"},
		{"bare host with path", "acme.co/leak/2", "acme.co"},
		{"onion", "http://abcdefghijklmnop.onion/victim/acme", "abcdefghijklmnop.onion"},
		{"empty", "", ""},
		{"whitespace", "   ", ""},
		{"leading slash", "/relative/path", ""},
		{"unparseable", "http://[::1/acme", "[::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractDomain(tt.in))
		})
	}
}

func TestRecordDomainSource(t *testing.T) {
	r := Record{PostURL: "http://blog.onion/acme", Website: "acme.com"}
	assert.Equal(t, "acme.com", r.DomainSource())

	r.Website = ""
	assert.Equal(t, "http://blog.onion/acme", r.DomainSource())
}
