package geoip

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpenMissingDatabase(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "GeoLite2-City.mmdb"))
	assert.Error(t, err)
}

func TestNilLocatorMisses(t *testing.T) {
	var l *Locator
	_, ok := l.Center("8.8.8.8")
	assert.False(t, ok)
	assert.NoError(t, l.Close())
}
