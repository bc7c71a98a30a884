package geoip

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aquataze/tool-gateway/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleUpstreamBody = `{
	"ip": "108.65.112.74",
	"network": "108.65.112.0/21",
	"version": "IPv4",
	"city": "Austin",
	"region": "Texas",
	"region_code": "TX",
	"country": "US",
	"country_name": "United States",
	"country_code": "US",
	"country_code_iso3": "USA",
	"country_capital": "Washington",
	"country_tld": ".us",
	"continent_code": "NA",
	"in_eu": false,
	"postal": "78717",
	"latitude": 30.5034,
	"longitude": -97.7494,
	"timezone": "America/Chicago",
	"utc_offset": "-0500",
	"country_calling_code": "+1",
	"currency": "USD",
	"currency_name": "Dollar",
	"languages": "en-US,es-US,haw,fr",
	"country_area": 9629091,
	"country_population": 327167434,
	"asn": "AS7018",
	"org": "ATT-INTERNET4"
}`

const (
	wantDescription         = "IP 108.65.112.74 is located in Austin, Texas, United States."
	wantDetailedDescription = "IP 108.65.112.74 belongs to the network 108.65.112.0/21. It is an IPv4 address located in Austin, Texas (TX), United States (USA). The location has the postal code 78717 and is situated at latitude 30.5034 and longitude -97.7494. The currency used is USD (Dollar), and the calling code is +1. The ISP is ATT-INTERNET4 with ASN AS7018."
)

// memoryRepo is an in-memory Repository that counts writes.
type memoryRepo struct {
	rows    map[string][]byte
	writes  int
	findErr error
}

func newMemoryRepo() *memoryRepo { return &memoryRepo{rows: map[string][]byte{}} }

func (m *memoryRepo) Find(ctx context.Context, ip string) (*storedRecord, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	raw, ok := m.rows[ip]
	if !ok {
		return nil, nil
	}
	rec := &storedRecord{}
	return rec, json.Unmarshal(raw, rec)
}

func (m *memoryRepo) Upsert(ctx context.Context, ip string, rec *storedRecord) error {
	m.writes++
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	m.rows[ip] = raw
	return nil
}

func newUpstream(t *testing.T, status int, body string) (*Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/108.65.112.74/json/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second), &calls
}

func TestResolve_MissThenHit(t *testing.T) {
	client, calls := newUpstream(t, http.StatusOK, sampleUpstreamBody)
	repo := newMemoryRepo()
	cache := NewCache(repo, client)

	first, err := cache.Resolve(context.Background(), "108.65.112.74")
	require.NoError(t, err)
	assert.Equal(t, wantDescription, first.Description)
	assert.Equal(t, wantDetailedDescription, first.DetailedDescription)
	assert.Equal(t, "AS7018", first.ASN)

	second, err := cache.Resolve(context.Background(), "108.65.112.74")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.EqualValues(t, 1, calls.Load(), "second resolve is served from the cache")
	assert.Equal(t, 1, repo.writes, "hits never write")
	assert.Contains(t, string(repo.rows["108.65.112.74"]), `"timezone":"America/Chicago"`, "timezone is persisted")
}

func TestResolve_NeverReturnsTimezone(t *testing.T) {
	client, _ := newUpstream(t, http.StatusOK, sampleUpstreamBody)
	cache := NewCache(newMemoryRepo(), client)

	for i := 0; i < 2; i++ {
		rec, err := cache.Resolve(context.Background(), "108.65.112.74")
		require.NoError(t, err)
		out, err := json.Marshal(rec)
		require.NoError(t, err)
		assert.NotContains(t, string(out), "timezone")
	}
}

func TestResolve_UpstreamFailureIsNotCached(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusBadGateway, `bad gateway`},
		{"rate limited", http.StatusTooManyRequests, `{"error": true, "reason": "RateLimited"}`},
		{"error body", http.StatusOK, `{"ip": "108.65.112.74", "error": true, "reason": "Reserved IP Address"}`},
		{"malformed", http.StatusOK, `{"ip":`},
		{"empty object", http.StatusOK, `{}`},
		{"null", http.StatusOK, `null`},
		{"address only", http.StatusOK, `{"ip": "108.65.112.74"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, calls := newUpstream(t, tt.status, tt.body)
			repo := newMemoryRepo()
			cache := NewCache(repo, client)

			for i := 0; i < 2; i++ {
				_, err := cache.Resolve(context.Background(), "108.65.112.74")
				assert.ErrorIs(t, err, api.ErrUpstreamLookupFailed)
			}
			assert.EqualValues(t, 2, calls.Load(), "failures are retried, not cached")
			assert.Zero(t, repo.writes)
		})
	}
}

// stubUpstream answers every address with the same attributes and records what it was asked.
type stubUpstream struct {
	asked []string
}

func (s *stubUpstream) Fetch(ctx context.Context, ip string) (*storedRecord, error) {
	s.asked = append(s.asked, ip)
	return &storedRecord{GeoRecord: GeoRecord{Version: "IPv6", City: "Sydney"}}, nil
}

func TestResolve_CanonicalAddressKey(t *testing.T) {
	upstream := &stubUpstream{}
	repo := newMemoryRepo()
	cache := NewCache(repo, upstream)

	for _, ip := range []string{"2001:db8::1", "2001:DB8:0::1", " 2001:0db8:0000:0000:0000:0000:0000:0001 "} {
		rec, err := cache.Resolve(context.Background(), ip)
		require.NoError(t, err, ip)
		assert.Equal(t, "2001:db8::1", rec.IP)
	}

	assert.Equal(t, []string{"2001:db8::1"}, upstream.asked, "one upstream call per address")
	assert.Equal(t, 1, repo.writes)
	assert.Len(t, repo.rows, 1)
	assert.Contains(t, repo.rows, "2001:db8::1")
}

func TestResolve_InvalidArgument(t *testing.T) {
	client, calls := newUpstream(t, http.StatusOK, sampleUpstreamBody)
	cache := NewCache(newMemoryRepo(), client)

	for _, ip := range []string{"", "   ", "not-an-ip", "999.1.1.1"} {
		_, err := cache.Resolve(context.Background(), ip)
		assert.ErrorIs(t, err, api.ErrInvalidArgument, ip)
	}
	assert.Zero(t, calls.Load())
}

func TestResolve_RepositoryError(t *testing.T) {
	client, calls := newUpstream(t, http.StatusOK, sampleUpstreamBody)
	repo := newMemoryRepo()
	repo.findErr = errors.Join(api.ErrConnectionExhausted, errors.New("refused"))

	_, err := NewCache(repo, client).Resolve(context.Background(), "108.65.112.74")
	assert.ErrorIs(t, err, api.ErrConnectionExhausted)
	assert.Zero(t, calls.Load())
}

type fakeConnector struct {
	db  *sql.DB
	err error
}

func (f fakeConnector) Connect(ctx context.Context) (*sql.DB, error) { return f.db, f.err }

func TestPostgresRepository(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(fakeConnector{db: db})

	mock.ExpectQuery(`SELECT record FROM ip_lookup_cache WHERE ip = \$1`).
		WithArgs("1.1.1.1").
		WillReturnError(sql.ErrNoRows)
	got, err := repo.Find(context.Background(), "1.1.1.1")
	require.NoError(t, err)
	assert.Nil(t, got)

	rec := &storedRecord{GeoRecord: GeoRecord{IP: "1.1.1.1", City: "Sydney"}, Timezone: "Australia/Sydney"}
	mock.ExpectExec(`INSERT INTO ip_lookup_cache .* ON CONFLICT \(ip\) DO UPDATE`).
		WithArgs("1.1.1.1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Upsert(context.Background(), "1.1.1.1", rec))

	raw, err := json.Marshal(rec)
	require.NoError(t, err)
	mock.ExpectQuery(`SELECT record FROM ip_lookup_cache WHERE ip = \$1`).
		WithArgs("1.1.1.1").
		WillReturnRows(sqlmock.NewRows([]string{"record"}).AddRow(raw))
	got, err = repo.Find(context.Background(), "1.1.1.1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Errors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(fakeConnector{db: db})

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("db err"))
	_, err = repo.Find(context.Background(), "1.1.1.1")
	assert.ErrorIs(t, err, api.ErrPersistence)

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"record"}).AddRow([]byte("{broken")))
	_, err = repo.Find(context.Background(), "1.1.1.1")
	assert.ErrorIs(t, err, api.ErrPersistence)

	mock.ExpectExec("INSERT").WillReturnError(errors.New("disk full"))
	err = repo.Upsert(context.Background(), "1.1.1.1", &storedRecord{})
	assert.ErrorIs(t, err, api.ErrPersistence)

	exhausted := NewPostgresRepository(fakeConnector{err: api.ErrConnectionExhausted})
	_, err = exhausted.Find(context.Background(), "1.1.1.1")
	assert.ErrorIs(t, err, api.ErrConnectionExhausted)
}
