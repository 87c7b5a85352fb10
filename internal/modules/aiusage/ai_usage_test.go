// README: AI-usage module tests (lazy reset and quota boundary logic).
package aiusage

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TestUseTokenCrossMonthReset verifies that an owner with 0 tokens left from a previous month
// is automatically reset and the request succeeds.
func TestUseTokenCrossMonthReset(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	// Seed owner with 0 tokens from a past month.
	if _, err := db.Exec(ctx, "INSERT INTO ai_usage VALUES ('owner_reset', 0, '2000-01')"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := svc.UseToken(ctx, "owner_reset"); err != nil {
		t.Fatalf("UseToken after cross-month reset: %v", err)
	}

	var remaining int
	if err := db.QueryRow(ctx, "SELECT tokens_remaining FROM ai_usage WHERE owner_id = 'owner_reset'").Scan(&remaining); err != nil {
		t.Fatalf("query: %v", err)
	}
	if remaining != DefaultTokens-1 {
		t.Fatalf("expected %d tokens remaining, got %d", DefaultTokens-1, remaining)
	}
}

// TestUseTokenInsufficientCheck verifies that an owner with 0 tokens in the current month is blocked.
func TestUseTokenInsufficientCheck(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	// Seed owner with 0 tokens for the current month.
	if _, err := db.Exec(ctx, "INSERT INTO ai_usage (owner_id, tokens_remaining, last_reset_month) VALUES ('owner_zero', 0, TO_CHAR(NOW(), 'YYYY-MM'))"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	err := svc.UseToken(ctx, "owner_zero")
	if err != ErrInsufficientTokens {
		t.Fatalf("expected ErrInsufficientTokens, got %v", err)
	}
}

// TestUseTokenNewOwner verifies that an owner absent from the table is initialised on first call.
// Session ids hit this path on their first metered chat turn.
func TestUseTokenNewOwner(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	if err := svc.UseToken(ctx, "session_new"); err != nil {
		t.Fatalf("UseToken for new owner: %v", err)
	}

	var remaining int
	if err := db.QueryRow(ctx, "SELECT tokens_remaining FROM ai_usage WHERE owner_id = 'session_new'").Scan(&remaining); err != nil {
		t.Fatalf("query: %v", err)
	}
	if remaining != DefaultTokens-1 {
		t.Fatalf("expected %d tokens remaining after first use, got %d", DefaultTokens-1, remaining)
	}
}

// TestUseTokenCustomAllowance verifies that a configured allowance drives both
// initialisation and the cross-month reset value.
func TestUseTokenCustomAllowance(t *testing.T) {
	_, db := setupTestService(t)
	ctx := context.Background()

	svc := NewService(NewStore(db, 5))
	for i := 0; i < 5; i++ {
		if err := svc.UseToken(ctx, "owner_small"); err != nil {
			t.Fatalf("UseToken %d: %v", i+1, err)
		}
	}
	if err := svc.UseToken(ctx, "owner_small"); err != ErrInsufficientTokens {
		t.Fatalf("expected ErrInsufficientTokens on call 6, got %v", err)
	}
}

// TestRemaining verifies the read path: unseen owners report the full
// allowance, stale months report a reset balance.
func TestRemaining(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	got, err := svc.Remaining(ctx, "owner_unseen")
	if err != nil {
		t.Fatalf("Remaining for unseen owner: %v", err)
	}
	if got != DefaultTokens {
		t.Fatalf("expected %d for unseen owner, got %d", DefaultTokens, got)
	}

	if _, err := db.Exec(ctx, "INSERT INTO ai_usage VALUES ('owner_stale', 2, '2000-01')"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	got, err = svc.Remaining(ctx, "owner_stale")
	if err != nil {
		t.Fatalf("Remaining for stale owner: %v", err)
	}
	if got != DefaultTokens {
		t.Fatalf("expected reset balance %d for stale month, got %d", DefaultTokens, got)
	}

	if err := svc.UseToken(ctx, "owner_counted"); err != nil {
		t.Fatalf("UseToken: %v", err)
	}
	got, err = svc.Remaining(ctx, "owner_counted")
	if err != nil {
		t.Fatalf("Remaining after use: %v", err)
	}
	if got != DefaultTokens-1 {
		t.Fatalf("expected %d after one use, got %d", DefaultTokens-1, got)
	}
}

// setupTestService creates a real postgres-backed Service for integration tests.
// It skips the test when WAYFARER_TEST_DSN is not set.
func setupTestService(t *testing.T) (*Service, *pgxpool.Pool) {
	t.Helper()

	dsn := os.Getenv("WAYFARER_TEST_DSN")
	if dsn == "" {
		t.Skip("WAYFARER_TEST_DSN not set; skipping DB-backed tests")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := applyMigrations(ctx, db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	if _, err := db.Exec(ctx, "TRUNCATE TABLE ai_usage"); err != nil {
		t.Fatalf("truncate ai_usage: %v", err)
	}

	return NewService(NewStore(db, 0)), db
}

func applyMigrations(ctx context.Context, db *pgxpool.Pool) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	migrations := []string{
		"0001_init.sql",
		"0002_budget_rates.sql",
	}
	for _, name := range migrations {
		path := filepath.Join(root, "migrations", name)
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		cleaned := stripSQLComments(string(content))
		for _, stmt := range splitSQL(cleaned) {
			if _, err := db.Exec(ctx, stmt); err != nil {
				return err
			}
		}
	}
	return nil
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func stripSQLComments(input string) string {
	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		b.WriteString(scanner.Text())
		b.WriteString("\n")
	}
	return b.String()
}

func splitSQL(input string) []string {
	parts := strings.Split(input, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		stmt := strings.TrimSpace(p)
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
