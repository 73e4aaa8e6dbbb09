package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-filter/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-filter/internal/app"
	"github.com/jsamuelsen/quote-filter/internal/domain"
)

func newRecordsRouter() *gin.Engine {
	cleaner := app.NewCleaner(app.CleanerConfig{
		Rules:  domain.DefaultRules(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	router := gin.New()
	NewRecordsHandler(cleaner, ',').RegisterRoutes(router.Group("/api/v1"))

	return router
}

func decodeError(t *testing.T, body string) dto.ErrorResponse {
	t.Helper()

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))

	return resp
}

func TestRecordsHandler_Normalize(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedText   string
		expectedCode   string
	}{
		{
			name:           "normalizes pronouns",
			body:           `{"text":"im john. i like go"}`,
			expectedStatus: http.StatusOK,
			expectedText:   "I'm john. I like go.",
		},
		{
			name:           "empty text is allowed",
			body:           `{"text":""}`,
			expectedStatus: http.StatusOK,
			expectedText:   "",
		},
		{
			name:           "missing text",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   dto.ErrorCodeValidation,
		},
		{
			name:           "invalid json",
			body:           `{"text":`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   dto.ErrorCodeBadRequest,
		},
	}

	router := newRecordsRouter()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/normalize", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, w.Body.String()).Error.Code)
				return
			}

			var resp dto.NormalizeResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.expectedText, resp.Text)
		})
	}
}

func TestRecordsHandler_Clean(t *testing.T) {
	input := "quote,author,category\n" +
		"im grateful,\"Jane  Doe, PhD\",wisdom\n" +
		"fine words,Anon,sex\n"

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/records/clean", strings.NewReader(input))
	req.Header.Set("Content-Type", "text/csv")

	newRecordsRouter().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "quote,author,category\nI'm grateful.,Jane Doe,wisdom\n", w.Body.String())
	assert.Equal(t, csvContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, "2", w.Header().Get(dto.HeaderRecordsTotal))
	assert.Equal(t, "1", w.Header().Get(dto.HeaderRecordsEmitted))
	assert.Equal(t, "1", w.Header().Get(dto.HeaderRecordsDropped))
	assert.NotEmpty(t, w.Header().Get(dto.HeaderRunID))
}

func TestRecordsHandler_Clean_Options(t *testing.T) {
	input := "quote;author;category\nhello;A;life\n"

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/records/clean?delimiter=%3B&crlf=true", strings.NewReader(input))

	newRecordsRouter().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "quote;author;category\r\nHello.;A;life\r\n", w.Body.String())
}

func TestRecordsHandler_Clean_Errors(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		contentType    string
		body           string
		expectedStatus int
		expectedCode   string
		expectedText   string
	}{
		{
			name:           "unsupported content type",
			target:         "/api/v1/records/clean",
			contentType:    "application/json",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   dto.ErrorCodeBadRequest,
			expectedText:   "application/json",
		},
		{
			name:           "empty body",
			target:         "/api/v1/records/clean",
			contentType:    "text/csv",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   dto.ErrorCodeValidation,
			expectedText:   "missing header row",
		},
		{
			name:           "missing column",
			target:         "/api/v1/records/clean",
			contentType:    "text/csv",
			body:           "quote,author\nq,a\n",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   dto.ErrorCodeValidation,
			expectedText:   "category",
		},
		{
			name:           "short row",
			target:         "/api/v1/records/clean",
			contentType:    "text/csv",
			body:           "quote,author,category\nq,a,c\nbroken,row\n",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   dto.ErrorCodeValidation,
			expectedText:   "line 3",
		},
		{
			name:           "double quote delimiter",
			target:         "/api/v1/records/clean?delimiter=%22",
			contentType:    "text/csv",
			body:           "author,quote,category\nA,b,c\n",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   dto.ErrorCodeValidation,
			expectedText:   "delimiter",
		},
		{
			name:           "line feed delimiter",
			target:         "/api/v1/records/clean?delimiter=%0A",
			contentType:    "text/csv",
			body:           "author,quote,category\nA,b,c\n",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   dto.ErrorCodeValidation,
			expectedText:   "line break",
		},
		{
			name:           "carriage return delimiter",
			target:         "/api/v1/records/clean?delimiter=%0D",
			contentType:    "text/csv",
			body:           "author,quote,category\nA,b,c\n",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   dto.ErrorCodeValidation,
			expectedText:   "line break",
		},
		{
			name:           "delimiter too long",
			target:         "/api/v1/records/clean?delimiter=%3B%3B",
			contentType:    "text/csv",
			body:           "quote,author,category\n",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   dto.ErrorCodeValidation,
			expectedText:   "delimiter",
		},
	}

	router := newRecordsRouter()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, tt.target, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

			resp := decodeError(t, w.Body.String())
			assert.Equal(t, tt.expectedCode, resp.Error.Code)
			assert.Contains(t, w.Body.String(), tt.expectedText)
		})
	}
}

func TestRecordsHandler_Clean_UnusableDefaultDelimiter(t *testing.T) {
	cleaner := app.NewCleaner(app.CleanerConfig{
		Rules:  domain.DefaultRules(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	router := gin.New()
	NewRecordsHandler(cleaner, '"').RegisterRoutes(router.Group("/api/v1"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/records/clean", strings.NewReader("author,quote,category\nA,b,c\n"))
	req.Header.Set("Content-Type", "text/csv")

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrorCodeValidation, decodeError(t, w.Body.String()).Error.Code)
}

func TestAcceptsTable(t *testing.T) {
	tests := []struct {
		contentType string
		expected    bool
	}{
		{contentType: "", expected: true},
		{contentType: "text/csv", expected: true},
		{contentType: "text/csv; charset=utf-8", expected: true},
		{contentType: "text/plain", expected: true},
		{contentType: "application/csv", expected: true},
		{contentType: "application/json", expected: false},
		{contentType: "not a media type;;", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.expected, acceptsTable(tt.contentType))
		})
	}
}
