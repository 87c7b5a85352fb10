// README: Booking service tests (state flow + session wiring).
package booking

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"wayfarer/internal/modules/session"
	"wayfarer/internal/types"
)

// TestCanTransition verifies the state machine transition table without a database.
func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		// happy-path forward transitions
		{StatusPending, StatusConfirmed, true},
		{StatusConfirmed, StatusCompleted, true},
		// cancels until the trip is over
		{StatusPending, StatusCancelled, true},
		{StatusConfirmed, StatusCancelled, true},
		// invalid: terminal states have no outgoing transitions
		{StatusCompleted, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
		// invalid: skipping states
		{StatusPending, StatusCompleted, false},
		{StatusConfirmed, StatusPending, false},
	}
	for _, tc := range cases {
		got := CanTransition(tc.from, tc.to)
		if got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestBookingFlowHappyPath(t *testing.T) {
	store, _ := setupTestStore(t)
	svc := NewService(store, nil)
	ctx := context.Background()

	b := mustCreateBooking(t, svc, "u_happy", "Lisbon")
	assertStatus(t, svc, b.ID, StatusPending)

	if err := svc.Confirm(ctx, ConfirmCommand{BookingID: b.ID, CallerUID: "u_happy"}); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	assertStatus(t, svc, b.ID, StatusConfirmed)

	got, err := svc.Get(ctx, b.ID, "u_happy")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ConfirmedAt == nil {
		t.Fatal("expected confirmed_at to be set")
	}
	if got.ConfirmedAmount == nil || got.ConfirmedAmount.Amount != got.EstimatedAmount.Amount {
		t.Fatalf("confirmed amount = %+v, want estimate %d", got.ConfirmedAmount, got.EstimatedAmount.Amount)
	}
	if got.StatusVersion != 1 {
		t.Fatalf("status version = %d, want 1", got.StatusVersion)
	}

	if err := svc.Complete(ctx, CompleteCommand{BookingID: b.ID}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	assertStatus(t, svc, b.ID, StatusCompleted)

	got, err = svc.Get(ctx, b.ID, "")
	if err != nil {
		t.Fatalf("get after complete: %v", err)
	}
	if got.CompletedAt == nil {
		t.Fatal("expected completed_at to be set")
	}
}

func TestBookingCancelWithReason(t *testing.T) {
	store, _ := setupTestStore(t)
	svc := NewService(store, nil)
	ctx := context.Background()

	b := mustCreateBooking(t, svc, "u_cancel", "Prague")
	if err := svc.Cancel(ctx, CancelCommand{BookingID: b.ID, CallerUID: "u_cancel", Reason: "plans changed"}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	assertStatus(t, svc, b.ID, StatusCancelled)

	got, err := svc.Get(ctx, b.ID, "u_cancel")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CancelReason == nil || *got.CancelReason != "plans changed" {
		t.Fatalf("cancel reason = %v, want %q", got.CancelReason, "plans changed")
	}
	if got.CancelledAt == nil {
		t.Fatal("expected cancelled_at to be set")
	}

	// Terminal: nothing moves a cancelled booking.
	if err := svc.Confirm(ctx, ConfirmCommand{BookingID: b.ID, CallerUID: "u_cancel"}); err != ErrInvalidState {
		t.Fatalf("confirm after cancel: expected ErrInvalidState, got %v", err)
	}
	if err := svc.Complete(ctx, CompleteCommand{BookingID: b.ID}); err != ErrInvalidState {
		t.Fatalf("complete after cancel: expected ErrInvalidState, got %v", err)
	}
}

func TestBookingCreateValidation(t *testing.T) {
	store, _ := setupTestStore(t)
	svc := NewService(store, nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateCommand{Destination: "Lisbon"}); err != ErrBadRequest {
		t.Fatalf("missing user: expected ErrBadRequest, got %v", err)
	}
	if _, err := svc.Create(ctx, CreateCommand{UserUID: "u_v"}); err != ErrBadRequest {
		t.Fatalf("missing destination: expected ErrBadRequest, got %v", err)
	}

	// Free-form create defaults the party size.
	b, err := svc.Create(ctx, CreateCommand{UserUID: "u_v", Destination: "Lisbon"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.Travelers != 1 {
		t.Fatalf("travelers = %d, want 1", b.Travelers)
	}
}

func TestBookingOwnership(t *testing.T) {
	store, _ := setupTestStore(t)
	svc := NewService(store, nil)
	ctx := context.Background()

	b := mustCreateBooking(t, svc, "u_owner", "Rome")

	if _, err := svc.Get(ctx, b.ID, "u_stranger"); err != ErrForbidden {
		t.Fatalf("stranger get: expected ErrForbidden, got %v", err)
	}
	if err := svc.Confirm(ctx, ConfirmCommand{BookingID: b.ID, CallerUID: "u_stranger"}); err != ErrForbidden {
		t.Fatalf("stranger confirm: expected ErrForbidden, got %v", err)
	}
	if err := svc.Cancel(ctx, CancelCommand{BookingID: b.ID, CallerUID: "u_stranger"}); err != ErrForbidden {
		t.Fatalf("stranger cancel: expected ErrForbidden, got %v", err)
	}
	// An empty caller is an internal actor and may read.
	if _, err := svc.Get(ctx, b.ID, ""); err != nil {
		t.Fatalf("internal get: %v", err)
	}
}

func TestBookingListByUser(t *testing.T) {
	store, _ := setupTestStore(t)
	svc := NewService(store, nil)
	ctx := context.Background()

	first := mustCreateBooking(t, svc, "u_list", "Rome")
	time.Sleep(20 * time.Millisecond)
	second := mustCreateBooking(t, svc, "u_list", "Lisbon")
	mustCreateBooking(t, svc, "u_other", "Oslo")

	got, err := svc.List(ctx, "u_list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 bookings, got %d", len(got))
	}
	// Newest first.
	if got[0].ID != second.ID || got[1].ID != first.ID {
		t.Fatalf("unexpected order: %s, %s", got[0].Destination, got[1].Destination)
	}

	if _, err := svc.List(ctx, ""); err != ErrBadRequest {
		t.Fatalf("empty user: expected ErrBadRequest, got %v", err)
	}
}

func TestBookingCreateFromSession(t *testing.T) {
	store, db := setupTestStore(t)
	sessions := newSessionManager(t, db)
	svc := NewService(store, sessions)
	ctx := context.Background()

	// A planning turn leaves the session with a trip plan.
	res, err := sessions.AddChatMessage(ctx, session.ChatCommand{
		SessionID: "sess_book_1",
		UserID:    "u_sess",
		Message:   "Plan a trip to Paris",
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if res.Session.Plan == nil {
		t.Fatal("expected a trip plan before booking")
	}

	b, err := svc.Create(ctx, CreateCommand{UserUID: "u_sess", SessionID: "sess_book_1"})
	if err != nil {
		t.Fatalf("create from session: %v", err)
	}
	if b.Destination != "Paris" {
		t.Fatalf("destination = %q, want Paris", b.Destination)
	}
	if b.SessionID == nil || *b.SessionID != "sess_book_1" {
		t.Fatalf("session id = %v, want sess_book_1", b.SessionID)
	}
	assertStatus(t, svc, b.ID, StatusPending)

	// Turning a plan into a booking closes the session.
	sess, ok, err := sessions.Get(ctx, "sess_book_1")
	if err != nil || !ok {
		t.Fatalf("get session: ok=%v err=%v", ok, err)
	}
	if sess.Status != session.StatusCompleted {
		t.Fatalf("session status = %s, want %s", sess.Status, session.StatusCompleted)
	}

	// One live booking per session.
	if _, err := svc.Create(ctx, CreateCommand{UserUID: "u_sess", SessionID: "sess_book_1"}); err != ErrActiveBooking {
		t.Fatalf("second booking: expected ErrActiveBooking, got %v", err)
	}

	// After cancelling, the session may be booked again.
	if err := svc.Cancel(ctx, CancelCommand{BookingID: b.ID, CallerUID: "u_sess", Reason: "rebooking"}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := svc.Create(ctx, CreateCommand{UserUID: "u_sess", SessionID: "sess_book_1"}); err != nil {
		t.Fatalf("rebook after cancel: %v", err)
	}
}

func TestBookingCreateFromSessionWithoutPlan(t *testing.T) {
	store, db := setupTestStore(t)
	sessions := newSessionManager(t, db)
	svc := NewService(store, sessions)
	ctx := context.Background()

	if _, err := sessions.AddChatMessage(ctx, session.ChatCommand{
		SessionID: "sess_book_2",
		Message:   "What's the weather like in Tokyo?",
	}); err != nil {
		t.Fatalf("chat: %v", err)
	}

	if _, err := svc.Create(ctx, CreateCommand{UserUID: "u_sess", SessionID: "sess_book_2"}); !errors.Is(err, session.ErrNoPlan) {
		t.Fatalf("expected session.ErrNoPlan, got %v", err)
	}

	if _, err := svc.Create(ctx, CreateCommand{UserUID: "u_sess", SessionID: "sess_missing"}); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected session.ErrNotFound, got %v", err)
	}
}

func mustCreateBooking(t *testing.T, svc *Service, userUID, destination string) *Booking {
	t.Helper()
	b, err := svc.Create(context.Background(), CreateCommand{
		UserUID:     userUID,
		Destination: destination,
		StartDate:   "2026-09-01",
		EndDate:     "2026-09-05",
		Travelers:   2,
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return b
}

func assertStatus(t *testing.T, svc *Service, id types.ID, want Status) {
	t.Helper()
	b, err := svc.Get(context.Background(), id, "")
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if b.Status != want {
		t.Fatalf("status = %s, want %s", b.Status, want)
	}
}

func newSessionManager(t *testing.T, db *pgxpool.Pool) *session.Manager {
	t.Helper()
	return session.NewManager(session.NewStore(db, nil), nil, nil, nil, nil, nil)
}

// setupTestStore connects to postgres and starts from clean booking tables.
// It skips the test when WAYFARER_TEST_DSN is not set.
func setupTestStore(t *testing.T) (*Store, *pgxpool.Pool) {
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

	for _, table := range []string{"bookings", "booking_state_events", "travel_sessions"} {
		if _, err := db.Exec(ctx, "TRUNCATE TABLE "+table); err != nil {
			t.Fatalf("truncate %s: %v", table, err)
		}
	}

	return NewStore(db), db
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
