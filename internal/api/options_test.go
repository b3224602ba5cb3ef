package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientOptions(t *testing.T) {
	custom := &http.Client{Timeout: time.Minute}

	tests := []struct {
		name string
		opts []Option
		want time.Duration
	}{
		{name: "default", want: DefaultTimeout},
		{name: "timeout only", opts: []Option{WithTimeout(5 * time.Second)}, want: 5 * time.Second},
		{name: "custom client keeps its timeout", opts: []Option{WithHTTPClient(custom)}, want: time.Minute},
		{name: "timeout before client", opts: []Option{WithTimeout(5 * time.Second), WithHTTPClient(custom)}, want: 5 * time.Second},
		{name: "timeout after client", opts: []Option{WithHTTPClient(custom), WithTimeout(5 * time.Second)}, want: 5 * time.Second},
		{name: "nil client", opts: []Option{WithHTTPClient(nil), WithTimeout(5 * time.Second)}, want: 5 * time.Second},
		{name: "nil client without timeout", opts: []Option{WithHTTPClient(nil)}, want: DefaultTimeout},
		{name: "zero timeout", opts: []Option{WithTimeout(0)}, want: DefaultTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c *Client
			require.NotPanics(t, func() {
				var err error
				c, err = NewClient("http://localhost:8080/api", tt.opts...)
				require.NoError(t, err)
			})
			require.NotNil(t, c.httpClient)
			assert.Equal(t, tt.want, c.httpClient.Timeout)
		})
	}

	assert.Equal(t, time.Minute, custom.Timeout, "the caller's client is not modified")
}

func TestNewStatusErrorPrefersBackendMessage(t *testing.T) {
	err := newStatusError(http.StatusBadRequest, []byte(`{"message":"Title is required","details":"uri=/api/books"}`))
	assert.Equal(t, "Title is required", err.Body)

	err = newStatusError(http.StatusBadGateway, []byte("  upstream down \n"))
	assert.Equal(t, "upstream down", err.Body)

	err = newStatusError(http.StatusInternalServerError, []byte(`{"details":"no message"}`))
	assert.Equal(t, `{"details":"no message"}`, err.Body)
}
