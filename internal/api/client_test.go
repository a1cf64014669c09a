package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-veylop/aximo-tui/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	opts = append([]Option{WithRateLimit(0), WithRetryInterval(time.Millisecond)}, opts...)
	c, err := New(srv.URL, func() string { return "tok" }, opts...)
	require.NoError(t, err)
	return c
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New("ftp://example.com", nil)
	assert.Error(t, err)

	_, err = New("://bad", nil)
	assert.Error(t, err)
}

func TestListModels_Envelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"result":[
			{"_id":{"$oid":"a1"},"name":"Alpha","framework":"PyTorch","createdAt":"2024-01-01T00:00:00Z","purchased":"3"},
			{"_id":"b2","name":"Beta","imageUrl":"http://img","purchasedCount":-2}
		]}`)
	})

	got, err := c.ListModels(t.Context())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a1", got[0].ID)
	assert.Equal(t, 3, got[0].PurchasedCount)
	assert.Equal(t, 2024, got[0].CreatedAt.Year())
	assert.Equal(t, "http://img", got[1].ImageURL)
	assert.Equal(t, 0, got[1].PurchasedCount)
	assert.False(t, got[1].HasCreatedAt())
}

func TestListModels_BareArray(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"_id":"x","name":"X"}]`)
	})

	got, err := c.RecentModels(t.Context())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "X", got[0].Name)
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		target error
	}{
		{"Unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"Forbidden", http.StatusForbidden, ErrUnauthorized},
		{"NotFound", http.StatusNotFound, ErrNotFound},
		{"BadRequest", http.StatusBadRequest, ErrValidation},
		{"Unprocessable", http.StatusUnprocessableEntity, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, `{"message":"nope"}`)
			})

			_, err := c.ListModels(t.Context())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)

			var se *StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.status, se.StatusCode)
			assert.Equal(t, "nope", se.Message)
			assert.Equal(t, int32(1), calls.Load(), "4xx must not be retried")
		})
	}
}

func TestGetRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `[]`)
	})

	got, err := c.ListModels(t.Context())
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, int32(3), calls.Load())
}

func TestWritesAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := c.DeleteModel(t.Context(), "m1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, int32(1), calls.Load())
}

func TestCircuitBreakerOpens(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, WithMaxRetries(0))

	for range 5 {
		_, err := c.ListModels(t.Context())
		require.Error(t, err)
	}
	before := calls.Load()

	_, err := c.ListModels(t.Context())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, before, calls.Load(), "open breaker must not reach the server")
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, WithMaxRetries(0))

	for range 10 {
		_, err := c.GetModel(t.Context(), "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	}
}

func TestGetModel_CachedUntilWrite(t *testing.T) {
	var gets atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			gets.Add(1)
			_, _ = io.WriteString(w, `{"_id":"m1","name":"Model One","price":"9.5"}`)
		default:
			_, _ = io.WriteString(w, `{"result":{"acknowledged":true}}`)
		}
	})

	rec, err := c.GetModel(t.Context(), "m1")
	require.NoError(t, err)
	assert.Equal(t, 9.5, rec.Price)

	_, err = c.GetModel(t.Context(), "m1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), gets.Load())

	require.NoError(t, c.PurchaseModel(t.Context(), "m1", models.Purchase{BuyerEmail: "a@b.c"}))
	_, err = c.GetModel(t.Context(), "m1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), gets.Load())
}

func TestAddModel(t *testing.T) {
	in := models.NewModelInput{
		Name: "Vision", Framework: "PyTorch", UseCase: "Vision",
		Dataset: "ImageNet", Description: "d", Image: "http://img",
	}

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Vision", body["name"])
		assert.Equal(t, "me@example.com", body["createdBy"])
		assert.NotEmpty(t, body["createdAt"])
		assert.EqualValues(t, 0, body["purchased"])

		_, _ = io.WriteString(w, `{"result":{"insertedId":{"$oid":"new-id"}}}`)
	})

	id, err := c.AddModel(t.Context(), in, "me@example.com")
	require.NoError(t, err)
	assert.Equal(t, "new-id", id)
}

func TestAddModel_Validation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request should not be sent")
	})

	_, err := c.AddModel(t.Context(), models.NewModelInput{Name: "x"}, "me@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "framework")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestStatusError_TruncatesPlainBodyByRune(t *testing.T) {
	body := strings.Repeat("é", 300)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, body)
	})

	_, err := c.ListModels(t.Context())
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.True(t, utf8.ValidString(se.Message))
	assert.Equal(t, strings.Repeat("é", 200), se.Message)
}

func TestMyPurchases(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/my-purchases", r.URL.Path)
		assert.Equal(t, "me@example.com", r.URL.Query().Get("email"))
		_, _ = io.WriteString(w, `{"result":[{"_id":"p1","modelId":"m1","modelName":"One","buyerEmail":"me@example.com","price":4,"purchasedAt":"2024-05-01T10:00:00Z"}]}`)
	})

	got, err := c.MyPurchases(t.Context(), "me@example.com")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "m1", got[0].ModelID)
	assert.Equal(t, 4.0, got[0].Price)
}

func TestAdminEndpoints(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/admin/stats":
			_, _ = io.WriteString(w, `{"totalUsers":3,"totalModels":7,"totalRevenue":120.5,"totalPurchases":9}`)
		case "/users":
			_, _ = io.WriteString(w, `[{"_id":"u1","name":"Ann","email":"ann@x.io","role":"admin"},{"_id":"u2","email":"bo@x.io"}]`)
		case "/users/u2":
			assert.Equal(t, http.MethodDelete, r.Method)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	stats, err := c.AdminStats(t.Context())
	require.NoError(t, err)
	assert.Equal(t, models.AdminStats{TotalUsers: 3, TotalModels: 7, TotalRevenue: 120.5, TotalPurchases: 9}, stats)

	users, err := c.ListUsers(t.Context())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.True(t, users[0].IsAdmin())
	assert.False(t, users[1].IsAdmin())

	require.NoError(t, c.DeleteUser(t.Context(), "u2"))
	assert.Error(t, c.DeleteUser(t.Context(), ""))
}

func TestNoTokenOmitsAuthorization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	c, err := New(srv.URL, nil, WithRateLimit(0))
	require.NoError(t, err)
	_, err = c.ListModels(t.Context())
	require.NoError(t, err)
}

func TestDecodeResult(t *testing.T) {
	var out struct {
		Result string `json:"result"`
		Other  string `json:"other"`
	}
	require.NoError(t, decodeResult([]byte(`{"other":"x"}`), &out))
	assert.Equal(t, "x", out.Other)

	var n int
	require.NoError(t, decodeResult([]byte(`{"result": 4}`), &n))
	assert.Equal(t, 4, n)

	require.NoError(t, decodeResult([]byte("  "), &n))
	assert.Error(t, decodeResult([]byte("{bad"), &n))
}
