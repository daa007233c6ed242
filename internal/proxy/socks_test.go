package proxy

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientDirect(t *testing.T) {
	c, err := NewClient("", 0)
	require.NoError(t, err)
	assert.Nil(t, c.Transport)
	assert.Equal(t, DefaultTimeout, c.Timeout)
}

func TestNewClientSocks(t *testing.T) {
	c, err := NewClient("127.0.0.1:1080", 30*time.Second)
	require.NoError(t, err)
	tr, ok := c.Transport.(*http.Transport)
	require.True(t, ok)
	assert.NotNil(t, tr.DialContext)
	assert.Equal(t, 30*time.Second, c.Timeout)
}
