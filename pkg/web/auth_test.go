package web_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukex/n8n-dashboard/pkg/web"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireAPIKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		headers        map[string]string
		expectedStatus int
		expectedKey    string
	}{
		{
			name:           "missing key",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "n8n header",
			headers:        map[string]string{"X-N8N-API-KEY": "secret"},
			expectedStatus: http.StatusOK,
			expectedKey:    "secret",
		},
		{
			name:           "bearer token",
			headers:        map[string]string{"Authorization": "Bearer token-1"},
			expectedStatus: http.StatusOK,
			expectedKey:    "token-1",
		},
		{
			name:           "bearer without separator",
			headers:        map[string]string{"Authorization": "Bearerxyz"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "other scheme",
			headers:        map[string]string{"Authorization": "Basic dXNlcjpwYXNz"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "empty bearer",
			headers:        map[string]string{"Authorization": "Bearer "},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app := fiber.New()
			app.Use(web.RequireAPIKey())
			app.Get("/", func(c fiber.Ctx) error {
				return c.SendString(web.APIKey(c))
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)

			defer func() {
				if err := resp.Body.Close(); err != nil {
					t.Logf("Failed to close response body: %v", err)
				}
			}()

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, tt.expectedKey, string(body))
			} else {
				assert.Contains(t, string(body), `"code":"UNAUTHORIZED"`)
				assert.Contains(t, string(body), `"message":"API key required"`)
			}
		})
	}
}
