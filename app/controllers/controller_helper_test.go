package controllers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTimePtr(t *testing.T) {
	assert.Nil(t, formatTimePtr(nil))

	now := time.Date(2026, 5, 1, 12, 34, 56, 0, time.Local)
	formatted := formatTimePtr(&now)
	assert.IsType(t, "", formatted)

	expected := now.UTC().Format(time.RFC3339)
	assert.Equal(t, expected, formatted)
}

func TestQueryInt(t *testing.T) {
	app := fiber.New()
	app.Get("/t", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"limit":  queryInt(c, "limit", 25, 1, 100),
			"offset": queryInt(c, "offset", 0, 0, 1000),
		})
	})

	cases := []struct {
		url    string
		limit  int
		offset int
	}{
		{"/t", 25, 0},
		{"/t?limit=50&offset=10", 50, 10},
		{"/t?limit=0", 1, 0},       // clamped to min
		{"/t?limit=9999", 100, 0},  // clamped to max
		{"/t?limit=abc&offset=-5", 25, 0}, // bad input falls back
	}

	for _, tc := range cases {
		resp, err := app.Test(httptest.NewRequest("GET", tc.url, nil))
		require.NoError(t, err, tc.url)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, tc.url)

		var body struct {
			Limit  int `json:"limit"`
			Offset int `json:"offset"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body), tc.url)
		resp.Body.Close()

		assert.Equal(t, tc.limit, body.Limit, tc.url)
		assert.Equal(t, tc.offset, body.Offset, tc.url)
	}
}
