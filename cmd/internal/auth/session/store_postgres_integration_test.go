package session

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
)

// Integration tests are enabled when ROLLCALL_TEST_DATABASE_URL is set and
// expect the migrations to have been applied. In non-CI runs, unreachable
// Postgres skips these tests to keep local runs fast.

func TestPostgresSession_CreateAndGetByToken_RoundTripsDevice(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dbURL := os.Getenv("ROLLCALL_TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("ROLLCALL_TEST_DATABASE_URL is not set; skipping Postgres integration test")
	}

	pool := mustPGXPool(ctx, t, dbURL)
	defer pool.Close()

	store := NewPostgresStore(pool)
	userID := mustCreateTestUser(ctx, t, pool)
	t.Cleanup(func() { cleanupTestUser(ctx, t, pool, userID) })

	now := time.Now().UTC().Truncate(time.Microsecond)
	wantIP := net.ParseIP("192.168.1.10")
	dev := Device{Name: "Chrome on macOS", UserAgent: "rollcall-test/1.0", IP: wantIP}
	token := "it-token-" + ulid.Make().String()

	created, err := store.Create(ctx, now, userID, dev, token, CapPolicy{MaxSessions: 5, FreshCutoff: now.Add(-time.Hour)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == 0 || created.UserID != userID {
		t.Fatalf("Create: row=%+v", created)
	}

	row, err := store.GetByToken(ctx, token)
	if err != nil {
		t.Fatalf("GetByToken: %v", err)
	}
	if row.Token != token || row.DeviceName != dev.Name || row.UserAgent != dev.UserAgent {
		t.Fatalf("GetByToken: row=%+v", row)
	}
	if !row.IP.Equal(wantIP) {
		t.Fatalf("GetByToken: ip=%v want=%v", row.IP, wantIP)
	}

	// A login without a resolvable address stores NULL and reads back nil.
	bare, err := store.Create(ctx, now, userID, Device{Name: "cli"}, token+"-bare", CapPolicy{MaxSessions: 5, FreshCutoff: now.Add(-time.Hour)})
	if err != nil {
		t.Fatalf("Create without ip: %v", err)
	}
	got, err := store.GetByToken(ctx, token+"-bare")
	if err != nil {
		t.Fatalf("GetByToken without ip: %v", err)
	}
	if got.ID != bare.ID || got.IP != nil {
		t.Fatalf("GetByToken without ip: row=%+v", got)
	}
}

func TestPostgresSession_ConcurrentLoginsRespectCap(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dbURL := os.Getenv("ROLLCALL_TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("ROLLCALL_TEST_DATABASE_URL is not set; skipping Postgres integration test")
	}

	pool := mustPGXPool(ctx, t, dbURL)
	defer pool.Close()

	store := NewPostgresStore(pool)
	userID := mustCreateTestUser(ctx, t, pool)
	t.Cleanup(func() { cleanupTestUser(ctx, t, pool, userID) })

	now := time.Now().UTC()
	pol := CapPolicy{MaxSessions: 2, FreshCutoff: now.Add(-time.Hour)}

	const attempts = 6
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  int
		rejected int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Create(ctx, now, userID, Device{Name: "race"}, "race-"+ulid.Make().String(), pol)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, ErrSessionLimit):
				rejected++
			default:
				t.Errorf("Create #%d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	if created != pol.MaxSessions || rejected != attempts-pol.MaxSessions {
		t.Fatalf("created=%d rejected=%d want created=%d rejected=%d", created, rejected, pol.MaxSessions, attempts-pol.MaxSessions)
	}

	n, err := store.CountActive(ctx, userID, pol.FreshCutoff)
	if err != nil {
		t.Fatalf("CountActive: %v", err)
	}
	if n != pol.MaxSessions {
		t.Fatalf("CountActive=%d want=%d", n, pol.MaxSessions)
	}
}

func TestPostgresSession_TouchIsMonotonic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dbURL := os.Getenv("ROLLCALL_TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("ROLLCALL_TEST_DATABASE_URL is not set; skipping Postgres integration test")
	}

	pool := mustPGXPool(ctx, t, dbURL)
	defer pool.Close()

	store := NewPostgresStore(pool)
	userID := mustCreateTestUser(ctx, t, pool)
	t.Cleanup(func() { cleanupTestUser(ctx, t, pool, userID) })

	now := time.Now().UTC().Truncate(time.Microsecond)
	token := "touch-" + ulid.Make().String()

	row, err := store.Create(ctx, now, userID, Device{Name: "t"}, token, CapPolicy{MaxSessions: 5, FreshCutoff: now.Add(-time.Hour)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	ahead := now.Add(time.Hour)
	if err := store.Touch(ctx, row.ID, ahead); err != nil {
		t.Fatalf("Touch forward: %v", err)
	}
	// A late-arriving request with an older timestamp must not move
	// last_seen backward.
	if err := store.Touch(ctx, row.ID, now.Add(-time.Hour)); err != nil {
		t.Fatalf("Touch backward: %v", err)
	}

	got, err := store.GetByToken(ctx, token)
	if err != nil {
		t.Fatalf("GetByToken: %v", err)
	}
	if got.LastSeen.Before(ahead) {
		t.Fatalf("last_seen=%v moved backward from %v", got.LastSeen, ahead)
	}
}

func mustPGXPool(ctx context.Context, t *testing.T, dbURL string) *pgxpool.Pool {
	t.Helper()

	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		t.Fatalf("pgxpool.ParseConfig: %v", err)
	}

	cfg.MaxConns = 4
	cfg.MinConns = 0
	cfg.MaxConnLifetime = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("pgxpool.NewWithConfig: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		if shouldSkipIntegration(err) {
			t.Skipf("integration test skipped: Postgres unreachable (ROLLCALL_TEST_DATABASE_URL set): %v", err)
		}
		t.Fatalf("pool.Ping: %v", err)
	}

	return pool
}

func shouldSkipIntegration(err error) bool {
	if err == nil {
		return false
	}
	if os.Getenv("CI") != "" {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "dial tcp") ||
		strings.Contains(msg, "no such host") {
		return true
	}
	return false
}

func mustCreateTestUser(ctx context.Context, t *testing.T, pool *pgxpool.Pool) int64 {
	t.Helper()

	name := "it-" + strings.ToLower(ulid.Make().String())
	var id int64
	err := pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, is_active, created_at)
		VALUES ($1, $2, 'not-a-real-hash', TRUE, now())
		RETURNING id
	`, name, name+"@example.com").Scan(&id)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return id
}

func cleanupTestUser(ctx context.Context, t *testing.T, pool *pgxpool.Pool, userID int64) {
	t.Helper()

	_, _ = pool.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	_, _ = pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
}
