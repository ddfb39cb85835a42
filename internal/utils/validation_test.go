package contextutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidURL(t *testing.T) {
	assert.True(t, IsValidURL("https://prod-00.westus.logic.azure.com/workflows/abc/triggers/manual/paths/invoke?api-version=2016-06-01"))
	assert.True(t, IsValidURL("http://localhost:8080/feedback"))

	assert.False(t, IsValidURL(""))
	assert.False(t, IsValidURL("not a url"))
	assert.False(t, IsValidURL("/relative/path"))
	assert.False(t, IsValidURL("ftp://example.com/file"))
}
