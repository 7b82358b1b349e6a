package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compras/internal/cache"
	"compras/internal/core"
)

func intPtr(v int) *int { return &v }

func TestFetchParams_Key(t *testing.T) {
	tests := []struct {
		name   string
		params FetchParams
		want   string
	}{
		{"empty", FetchParams{}, ""},
		{"year only", FetchParams{Year: intPtr(2024)}, "year=2024"},
		{
			"all params",
			FetchParams{Year: intPtr(2023), Region: "Pichincha", ContractType: "Licitación"},
			"region=Pichincha&type=Licitaci%C3%B3n&year=2023",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.params.Key())
		})
	}
}

func TestClient_Fetch_Success(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"month":"3","total":"100","contracts":"2","internal_type":"Compra"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	records, err := c.Fetch(context.Background(), FetchParams{Year: intPtr(2024), Region: "Azuay"})

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Compra", records[0]["internal_type"])
	assert.Equal(t, "region=Azuay&year=2024", gotQuery)
}

func TestClient_Fetch_RemoteStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Fetch(context.Background(), FetchParams{})

	se, ok := AsSourceError(err)
	require.True(t, ok, "expected *SourceError, got %v", err)
	assert.Equal(t, ErrCodeRemoteStatus, se.Code)
	assert.Equal(t, http.StatusInternalServerError, se.Status)
}

func TestClient_Fetch_EmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Fetch(context.Background(), FetchParams{})

	se, ok := AsSourceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeEmptyResult, se.Code)
}

func TestClient_Fetch_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"an array"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Fetch(context.Background(), FetchParams{})

	se, ok := AsSourceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeMalformedInput, se.Code)
}

func TestClient_Fetch_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	c := NewClient(srv.URL, time.Second)
	_, err := c.Fetch(context.Background(), FetchParams{})

	se, ok := AsSourceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeTransport, se.Code)
	assert.False(t, se.IsTimeout())
}

func TestClient_Fetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 20*time.Millisecond)
	_, err := c.Fetch(context.Background(), FetchParams{})

	se, ok := AsSourceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeTransport, se.Code)
	assert.True(t, se.IsTimeout(), "timeout should be recognizable: %v", err)
}

func TestDecodeRecords_NonObjectElementsBecomeNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"internal_type":"Compra"}, "garbage", 42]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	records, err := c.Fetch(context.Background(), FetchParams{})

	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.NotNil(t, records[0])
	assert.Nil(t, records[1])
	assert.Nil(t, records[2])
}

func TestCachedClient_SecondFetchHitsCache(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte(`[{"internal_type":"Compra"}]`))
	}))
	defer srv.Close()

	cc := NewCachedClient(NewClient(srv.URL, time.Second), cache.NewLRU[[]core.RawRecord](4, 0))
	params := FetchParams{Year: intPtr(2024)}

	for i := 0; i < 3; i++ {
		records, err := cc.Fetch(context.Background(), params)
		require.NoError(t, err)
		require.Len(t, records, 1)
	}
	assert.Equal(t, 1, hits, "repeated fetches with identical params must reuse the cache")
}

func TestCachedClient_ErrorsAreNotCached(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 1 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[{"internal_type":"Compra"}]`))
	}))
	defer srv.Close()

	cc := NewCachedClient(NewClient(srv.URL, time.Second), cache.NewLRU[[]core.RawRecord](4, 0))

	_, err := cc.Fetch(context.Background(), FetchParams{})
	require.Error(t, err)

	records, err := cc.Fetch(context.Background(), FetchParams{})
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 2, hits)
}

func TestParsePayload(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		records, err := ParsePayload([]byte(`[{"month":3,"total":100.5,"internal_type":"Compra"}]`))
		require.NoError(t, err)
		require.Len(t, records, 1)
	})

	t.Run("not an array", func(t *testing.T) {
		_, err := ParsePayload([]byte(`{"oops": true}`))
		se, ok := AsSourceError(err)
		require.True(t, ok)
		assert.Equal(t, ErrCodeMalformedInput, se.Code)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParsePayload([]byte(`not json at all`))
		se, ok := AsSourceError(err)
		require.True(t, ok)
		assert.Equal(t, ErrCodeMalformedInput, se.Code)
	})

	t.Run("empty array", func(t *testing.T) {
		_, err := ParsePayload([]byte(`[]`))
		se, ok := AsSourceError(err)
		require.True(t, ok)
		assert.Equal(t, ErrCodeEmptyResult, se.Code)
	})
}

func TestPayloadKey_StableAndDistinct(t *testing.T) {
	a := []byte(`[{"internal_type":"Compra"}]`)
	b := []byte(`[{"internal_type":"Licitación"}]`)

	assert.Equal(t, PayloadKey(a), PayloadKey(a))
	assert.NotEqual(t, PayloadKey(a), PayloadKey(b))
	assert.Contains(t, PayloadKey(a), "file:")
}
