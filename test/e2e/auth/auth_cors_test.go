package auth_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/notafemboy/blogauth/pkg/authsdk"
)

func TestCORS(t *testing.T) {
	e := setupService(t, nil)
	token := e.signIn(t, "C1")

	bearer := http.Header{"Authorization": {"Bearer " + token}}

	t.Run("allowed origin is echoed", func(t *testing.T) {
		h := bearer.Clone()
		h.Set("Origin", allowedOrigin)

		resp := e.get(t, e.baseURL+authsdk.PathVerify, h)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, allowedOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
	})

	t.Run("unlisted origin gets no allow header", func(t *testing.T) {
		h := bearer.Clone()
		h.Set("Origin", "https://evil.example")

		resp := e.get(t, e.baseURL+authsdk.PathVerify, h)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		for _, origin := range []string{allowedOrigin, "https://evil.example"} {
			req, err := http.NewRequestWithContext(t.Context(), http.MethodOptions, e.baseURL+authsdk.PathMe, nil)
			require.NoError(t, err)
			req.Header.Set("Origin", origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodGet)

			resp, err := e.browser.Do(req)
			require.NoError(t, err)
			require.NoError(t, resp.Body.Close())

			require.Equal(t, http.StatusOK, resp.StatusCode, origin)
			if origin == allowedOrigin {
				require.Equal(t, origin, resp.Header.Get("Access-Control-Allow-Origin"))
				require.NotEmpty(t, resp.Header.Get("Access-Control-Allow-Methods"))
			} else {
				require.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
			}
		}
	})

	t.Run("rejections still carry CORS headers", func(t *testing.T) {
		resp := e.get(t, e.baseURL+authsdk.PathMe, http.Header{"Origin": {allowedOrigin}})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Equal(t, allowedOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
	})
}
