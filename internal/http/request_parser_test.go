package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func newRequest(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestRequestBodyParser_JSON(t *testing.T) {
	p := NewRequestBodyParser(newRequest(`{
		"description": "  Groceries\u0007 ",
		"amount": 12.50,
		"category": "food",
		"date": "2025-01-10",
		"isIncome": false,
		"tags": ["weekly", " market "],
		"recurring": true
	}`))
	require.NoError(t, p.Parse())
	assert.True(t, p.IsJSON())

	in := p.TransactionInput()
	assert.Equal(t, core.TransactionInput{
		Description: "Groceries",
		Amount:      "12.50",
		Category:    "food",
		Date:        "2025-01-10",
		Tags:        []string{"weekly", "market"},
		Recurring:   true,
	}, in)
	assert.True(t, p.Has("isIncome"))
	assert.False(t, p.Has("note"))
}

func TestRequestBodyParser_FormData(t *testing.T) {
	p := NewRequestBodyParser(newRequest("title=Pay+rent&priority=HIGH&dueDate=2025-02-01&tags=a,+b,,c"))
	require.NoError(t, p.Parse())
	assert.False(t, p.IsJSON())

	in := p.TaskInput()
	assert.Equal(t, "Pay rent", in.Title)
	assert.Equal(t, "HIGH", in.Priority)
	assert.Equal(t, "2025-02-01", in.DueDate)
	assert.Equal(t, []string{"a", "b", "c"}, p.Strings("tags"))
}

func TestRequestBodyParser_Bool(t *testing.T) {
	for _, v := range []string{"true", "on", "yes", "1", "TRUE"} {
		p := NewRequestBodyParser(newRequest("isIncome=" + v))
		require.NoError(t, p.Parse())
		assert.True(t, p.Bool("isIncome"), v)
	}
	p := NewRequestBodyParser(newRequest("isIncome=false"))
	require.NoError(t, p.Parse())
	assert.False(t, p.Bool("isIncome"))
	assert.False(t, p.Bool("missing"))
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	p := NewRequestBodyParser(newRequest(""))
	require.NoError(t, p.Parse())
	assert.Equal(t, "", p.Get("anything"))
	assert.Nil(t, p.Strings("tags"))
}

func TestRequestBodyParser_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed JSON", `{"description": `},
		{"array body", `[1, 2]`},
		{"too large", "a=" + strings.Repeat("x", maxBodyBytes)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewRequestBodyParser(newRequest(tt.body))
			assert.Error(t, p.Parse())
			assert.Error(t, p.Parse(), "the error is sticky")
		})
	}
}

func TestParsePeriodParams(t *testing.T) {
	fallback := core.Period{Year: 2025, Month: 0}

	tests := []struct {
		name    string
		query   url.Values
		want    core.Period
		wantErr bool
	}{
		{"no params", url.Values{}, fallback, false},
		{"both", url.Values{"year": {"2024"}, "month": {"11"}}, core.Period{Year: 2024, Month: 11}, false},
		{"month only", url.Values{"month": {"5"}}, core.Period{Year: 2025, Month: 5}, false},
		{"month out of range", url.Values{"month": {"12"}}, core.Period{}, true},
		{"not a number", url.Values{"year": {"abc"}}, core.Period{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePeriodParams(tt.query, fallback)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, core.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "a\tb\nc", sanitizeInput("  a\tb\nc\x00\x1b "))
}
