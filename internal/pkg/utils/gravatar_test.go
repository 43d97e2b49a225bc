package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetGravatarURL(t *testing.T) {
	// Hash from the Gravatar documentation example.
	url := GetGravatarURL(" MyEmailAddress@example.com ", 80)
	assert.Equal(t, "https://www.gravatar.com/avatar/0bc83cb571cd1c50ba6f3e8a78ef1346?s=80&d=mp", url)
}

func TestGetGravatarURLDefaultSize(t *testing.T) {
	url := GetGravatarURL("user@example.com", 0)
	assert.Contains(t, url, "s=200")
}
