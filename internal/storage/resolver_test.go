package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestURLResolver_Resolve(t *testing.T) {
	resolver := NewURLResolver("backend", "3001")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"localhost audio", "http://localhost:3001/clip.mp3", "http://backend:3001/clip.mp3"},
		{"ipv4 loopback", "http://127.0.0.1:3001/uploads/a.jpg", "http://backend:3001/uploads/a.jpg"},
		{"no path", "http://localhost:3001", "http://backend:3001"},
		{"query only", "http://localhost:3001?file=a.jpg", "http://backend:3001?file=a.jpg"},
		{"userinfo", "http://user@localhost:3001/a.jpg", "http://user@backend:3001/a.jpg"},
		{"other port", "http://localhost:8080/a.jpg", "http://localhost:8080/a.jpg"},
		{"longer port", "http://localhost:30010/a.jpg", "http://localhost:30010/a.jpg"},
		{"host suffix", "http://mylocalhost:3001/a.jpg", "http://mylocalhost:3001/a.jpg"},
		{"external", "https://cdn.example.com/a.jpg", "https://cdn.example.com/a.jpg"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolver.Resolve(tt.in))
		})
	}
}

func TestURLResolver_CustomHost(t *testing.T) {
	resolver := NewURLResolver("api.internal", "3001")
	assert.Equal(t, "http://api.internal:3001/x.jpg", resolver.Resolve("http://localhost:3001/x.jpg"))
}

func TestURLResolver_Idempotent(t *testing.T) {
	inputs := []string{
		"http://localhost:3001/clip.mp3",
		"http://127.0.0.1:3001/a.jpg",
		"https://example.com/a.jpg",
		"http://backend:3001/a.jpg",
		"not a url at all",
	}
	hosts := []string{"backend", "localhost", "127.0.0.1", "xlocalhost"}

	for _, host := range hosts {
		resolver := NewURLResolver(host, "3001")
		for _, in := range inputs {
			once := resolver.Resolve(in)
			assert.Equal(t, once, resolver.Resolve(once), "host=%s input=%s", host, in)
		}
	}
}
