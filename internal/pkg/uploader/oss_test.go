package uploader

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	key := ObjectKey("/products/", "Burger.PNG", now)

	assert.True(t, strings.HasPrefix(key, "products/20260309/"))
	assert.True(t, strings.HasSuffix(key, ".png"))

	assert.True(t, strings.HasPrefix(ObjectKey("", "a.jpg", now), "misc/"))
}

func TestCheckImage(t *testing.T) {
	assert.NoError(t, CheckImage("pizza.jpeg"))
	assert.NoError(t, CheckImage("pizza.WEBP"))
	assert.ErrorIs(t, CheckImage("menu.pdf"), ErrUnsupportedFileType)
	assert.ErrorIs(t, CheckImage("noext"), ErrUnsupportedFileType)
}
