// README: Benchmark test cases; includes HTTP, DB, Redis, and performance checks against a running API.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name  string
	Focus string
	Run   func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))

	for _, tc := range tests {
		res := tc.Run(ctx, r)
		results = append(results, res)
		fmt.Printf("%-7s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}

	return results
}

func (r *Runner) migrationPaths() []string {
	parts := strings.Split(r.cfg.MigrationPaths, ",")
	paths := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			paths = append(paths, s)
		}
	}
	return paths
}

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	return []TestCase{
		{
			Name:  "Env: Postgres connect",
			Focus: "database reachable",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: "FAIL", Note: "db not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.db.Ping(ctx); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "Env: Redis connect",
			Focus: "cache reachable",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: "FAIL", Note: "redis not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.redis.Ping(ctx).Err(); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "Migration: apply (optional)",
			Focus: "apply migration SQL when asked",
			Run: func(ctx context.Context, r *Runner) Result {
				if !r.cfg.ApplyMigrations {
					return Result{Status: "SKIP", Note: "apply-migrations=false"}
				}
				if r.db == nil {
					return Result{Status: "FAIL", Note: "db not configured"}
				}
				for _, path := range r.migrationPaths() {
					sql, err := os.ReadFile(path)
					if err != nil {
						return Result{Status: "FAIL", Note: err.Error()}
					}
					for _, s := range splitSQL(string(sql)) {
						if _, err := r.db.Exec(ctx, s); err != nil {
							return Result{Status: "FAIL", Note: err.Error()}
						}
					}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "Migration: tables exist",
			Focus: "schema matches migration files",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: "FAIL", Note: "db not configured"}
				}
				for _, path := range r.migrationPaths() {
					tables, err := extractTables(path)
					if err != nil {
						return Result{Status: "FAIL", Note: err.Error()}
					}
					for _, t := range tables {
						var exists bool
						err := r.db.QueryRow(ctx,
							"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)",
							t,
						).Scan(&exists)
						if err != nil {
							return Result{Status: "FAIL", Note: err.Error()}
						}
						if !exists {
							return Result{Status: "FAIL", Note: "missing table: " + t}
						}
					}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "API: server reachable",
			Focus: "health endpoint answers",
			Run: func(ctx context.Context, r *Runner) Result {
				start := time.Now()
				resp, err := r.httpc.Get(base + "/health")
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				_ = resp.Body.Close()
				return Result{Status: "PASS", Latency: time.Since(start), Note: fmt.Sprintf("status=%d", resp.StatusCode)}
			},
		},

		// Chat flow
		httpCase("Chat: start session (valid)", base+"/api/sessions", map[string]any{
			"message": "Plan a trip to Paris",
		}, []int{200, 201}, []int{501, 404}),

		httpCase("Chat: start session (message too long -> 400)", base+"/api/sessions", map[string]any{
			"message": strings.Repeat("a", 1001),
		}, []int{400}, []int{501, 404}),

		{
			Name:  "Chat: full planning flow",
			Focus: "start, chat turn, plan creation, persisted session",
			Run: func(ctx context.Context, r *Runner) Result {
				return chatFlow(ctx, r, base)
			},
		},
		{
			Name:  "Chat: start is idempotent for one id",
			Focus: "repeating start never duplicates the seed turn",
			Run: func(ctx context.Context, r *Runner) Result {
				return idempotentStart(ctx, r, base)
			},
		},
		{
			Name:  "Chat: message to unknown session recreates it",
			Focus: "chat never 404s on a vanished session",
			Run: func(ctx context.Context, r *Runner) Result {
				return recreateFlow(ctx, r, base)
			},
		},

		// Budget
		httpCaseMethod("Budget: estimate (valid)", http.MethodGet,
			base+"/api/budget/estimate?destination=paris&nights=4&adults=2", nil, []int{200}, []int{501, 404}),

		httpCaseMethod("Budget: estimate missing destination -> 400", http.MethodGet,
			base+"/api/budget/estimate?nights=4", nil, []int{400}, []int{501, 404}),

		// Auth boundary
		httpCaseMethod("Auth: profile without token -> 401", http.MethodGet,
			base+"/api/users/me", nil, []int{401}, []int{501, 404}),

		httpCase("Auth: booking without token -> 401", base+"/api/bookings", map[string]any{
			"destination": "Lisbon",
		}, []int{401}, []int{501, 404}),

		// Concurrency
		{
			Name:  "Concurrency: duplicate session starts",
			Focus: "one id, many starts, one created session",
			Run: func(ctx context.Context, r *Runner) Result {
				return concurrentStart(ctx, r, base)
			},
		},

		// Manual checks
		manualCase("Quota: allowance exhausted -> template replies", "set WAYFARER_AI_MONTHLY_TOKENS=1 with GEMINI_API_KEY configured and chat twice"),
		manualCase("Sweeper: idle sessions abandoned", "shorten WAYFARER_SESSION_IDLE_TTL and wait for a sweep cycle"),
		manualCase("Error: DB down -> 500", "stop postgres and watch chat responses"),
		manualCase("Error: Redis down -> store falls back to postgres", "stop redis and confirm session reads still resolve"),
		manualCase("Recovery: restart keeps sessions", "restart the API and fetch a pre-restart session id"),

		// Performance
		{
			Name:  "Perf: chat message throughput",
			Focus: "sustained chat turns against one session",
			Run: func(ctx context.Context, r *Runner) Result {
				return perfLoad(ctx, r, http.MethodPost, base+"/api/sessions/bench-perf/messages", map[string]any{
					"message": "What should we see in Paris?",
				})
			},
		},
		{
			Name:  "Perf: budget estimate throughput",
			Focus: "read-only pricing endpoint",
			Run: func(ctx context.Context, r *Runner) Result {
				return perfLoad(ctx, r, http.MethodGet, base+"/api/budget/estimate?destination=rome&nights=5&adults=2", nil)
			},
		},
	}
}

// apiEnvelope mirrors the {success, data, error} wrapper every endpoint uses.
type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type sessionViewLite struct {
	ID      string            `json:"id"`
	Status  string            `json:"status"`
	History []json.RawMessage `json:"conversation_history"`
	Context struct {
		Destination string `json:"destination"`
	} `json:"trip_context"`
	Plan *struct {
		Destination string `json:"destination"`
		CreatedAt   string `json:"created_at"`
	} `json:"trip_plan"`
}

type chatRespLite struct {
	SessionID     string `json:"session_id"`
	SessionStatus string `json:"session_status"`
	Message       string `json:"message"`
	Intent        struct {
		WantsTripPlan bool    `json:"wants_trip_plan"`
		Confidence    float64 `json:"confidence"`
	} `json:"intent"`
}

func (r *Runner) doJSON(ctx context.Context, method, url string, body any) (*apiEnvelope, int, error) {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.httpc.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	var env apiEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("bad envelope: %s", string(raw))
	}
	return &env, resp.StatusCode, nil
}

// chatFlow drives one session end to end: seeded start, a planning turn that
// must create the trip plan, and a read-back check against the API and DB.
func chatFlow(ctx context.Context, r *Runner, base string) Result {
	start := time.Now()
	sid := fmt.Sprintf("bench-flow-%d", time.Now().UnixNano())

	env, code, err := r.doJSON(ctx, http.MethodPost, base+"/api/sessions", map[string]any{
		"session_id": sid,
		"message":    "Plan a trip to Paris",
		"source":     "bench",
	})
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	if code != 201 {
		return Result{Status: "FAIL", Note: fmt.Sprintf("start status=%d", code)}
	}
	var view sessionViewLite
	if err := json.Unmarshal(env.Data, &view); err != nil {
		return Result{Status: "FAIL", Note: "start: " + err.Error()}
	}
	if view.ID != sid || len(view.History) != 1 || view.Context.Destination != "Paris" {
		return Result{Status: "FAIL", Note: fmt.Sprintf("seed id=%s history=%d dest=%s", view.ID, len(view.History), view.Context.Destination)}
	}

	env, code, err = r.doJSON(ctx, http.MethodPost, base+"/api/sessions/"+sid+"/messages", map[string]any{
		"message": "Plan a trip to Paris next week",
	})
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	if code != 200 {
		return Result{Status: "FAIL", Note: fmt.Sprintf("message status=%d", code)}
	}
	var chat chatRespLite
	if err := json.Unmarshal(env.Data, &chat); err != nil {
		return Result{Status: "FAIL", Note: "message: " + err.Error()}
	}
	if !chat.Intent.WantsTripPlan || chat.Intent.Confidence < 0.7 {
		return Result{Status: "FAIL", Note: fmt.Sprintf("intent wants=%v conf=%.1f", chat.Intent.WantsTripPlan, chat.Intent.Confidence)}
	}
	if chat.Message == "" {
		return Result{Status: "FAIL", Note: "empty assistant reply"}
	}

	env, code, err = r.doJSON(ctx, http.MethodGet, base+"/api/sessions/"+sid, nil)
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	if code != 200 {
		return Result{Status: "FAIL", Note: fmt.Sprintf("get status=%d", code)}
	}
	if err := json.Unmarshal(env.Data, &view); err != nil {
		return Result{Status: "FAIL", Note: "get: " + err.Error()}
	}
	if len(view.History) != 3 {
		return Result{Status: "FAIL", Note: fmt.Sprintf("history=%d want 3", len(view.History))}
	}
	if view.Plan == nil || view.Plan.Destination != "Paris" {
		return Result{Status: "FAIL", Note: "trip plan missing after planning turn"}
	}
	if view.Status != "planning" {
		return Result{Status: "FAIL", Note: "status=" + view.Status}
	}
	firstPlanCreated := view.Plan.CreatedAt

	// Another planning turn must refresh the plan, not recreate it.
	if _, code, err = r.doJSON(ctx, http.MethodPost, base+"/api/sessions/"+sid+"/messages", map[string]any{
		"message": "Plan a trip to Paris for 2 people",
	}); err != nil || code != 200 {
		return Result{Status: "FAIL", Note: fmt.Sprintf("second turn status=%d err=%v", code, err)}
	}
	env, _, err = r.doJSON(ctx, http.MethodGet, base+"/api/sessions/"+sid, nil)
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	if err := json.Unmarshal(env.Data, &view); err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	if view.Plan == nil || view.Plan.CreatedAt != firstPlanCreated {
		return Result{Status: "FAIL", Note: "plan recreated instead of refreshed"}
	}

	if r.db != nil {
		var status string
		err := r.db.QueryRow(ctx, "SELECT status FROM travel_sessions WHERE id=$1", sid).Scan(&status)
		if err != nil {
			return Result{Status: "FAIL", Note: "db row: " + err.Error()}
		}
		if status != "planning" {
			return Result{Status: "FAIL", Note: "db status=" + status}
		}
	}

	return Result{Status: "PASS", Latency: time.Since(start)}
}

func idempotentStart(ctx context.Context, r *Runner, base string) Result {
	sid := fmt.Sprintf("bench-idem-%d", time.Now().UnixNano())
	body := map[string]any{"session_id": sid, "message": "I want to visit Tokyo"}

	_, code, err := r.doJSON(ctx, http.MethodPost, base+"/api/sessions", body)
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	if code != 201 {
		return Result{Status: "FAIL", Note: fmt.Sprintf("first start status=%d", code)}
	}

	env, code, err := r.doJSON(ctx, http.MethodPost, base+"/api/sessions", body)
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	if code != 200 {
		return Result{Status: "FAIL", Note: fmt.Sprintf("repeat start status=%d", code)}
	}
	var view sessionViewLite
	if err := json.Unmarshal(env.Data, &view); err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	if len(view.History) != 1 {
		return Result{Status: "FAIL", Note: fmt.Sprintf("history=%d want 1", len(view.History))}
	}
	return Result{Status: "PASS"}
}

func recreateFlow(ctx context.Context, r *Runner, base string) Result {
	sid := fmt.Sprintf("bench-lost-%d", time.Now().UnixNano())
	env, code, err := r.doJSON(ctx, http.MethodPost, base+"/api/sessions/"+sid+"/messages", map[string]any{
		"message": "hello again",
	})
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	if code != 200 {
		return Result{Status: "FAIL", Note: fmt.Sprintf("status=%d", code)}
	}
	var chat chatRespLite
	if err := json.Unmarshal(env.Data, &chat); err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	if chat.SessionID != sid {
		return Result{Status: "FAIL", Note: "recreated under wrong id: " + chat.SessionID}
	}
	return Result{Status: "PASS"}
}

func httpCase(name, url string, body any, okStatuses, pendingStatuses []int) TestCase {
	return httpCaseMethod(name, http.MethodPost, url, body, okStatuses, pendingStatuses)
}

func httpCaseMethod(name, method, url string, body any, okStatuses, pendingStatuses []int) TestCase {
	return TestCase{
		Name:  name,
		Focus: "HTTP API",
		Run: func(ctx context.Context, r *Runner) Result {
			var reader io.Reader
			if body != nil {
				b, _ := json.Marshal(body)
				reader = strings.NewReader(string(b))
			}
			req, _ := http.NewRequestWithContext(ctx, method, url, reader)
			req.Header.Set("Content-Type", "application/json")
			start := time.Now()
			resp, err := r.httpc.Do(req)
			if err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			latency := time.Since(start)

			if contains(okStatuses, resp.StatusCode) {
				return Result{Status: "PASS", Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
			}
			if contains(pendingStatuses, resp.StatusCode) {
				return Result{Status: "PENDING", Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
			}
			return Result{Status: "FAIL", Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
		},
	}
}

func manualCase(name, note string) TestCase {
	return TestCase{
		Name:  name,
		Focus: "Manual",
		Run: func(ctx context.Context, r *Runner) Result {
			return Result{Status: "SKIP", Note: note}
		},
	}
}

// concurrentStart fires many starts for one session id; exactly one may
// report 201.
func concurrentStart(ctx context.Context, r *Runner, base string) Result {
	sid := fmt.Sprintf("bench-race-%d", time.Now().UnixNano())
	payload := map[string]any{"session_id": sid, "message": "Plan a trip to Rome"}
	b, _ := json.Marshal(payload)

	wg := sync.WaitGroup{}
	created := 0
	ok := 0
	mu := sync.Mutex{}

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, _ := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/sessions", strings.NewReader(string(b)))
			req.Header.Set("Content-Type", "application/json")
			resp, err := r.httpc.Do(req)
			if err != nil {
				return
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			mu.Lock()
			switch resp.StatusCode {
			case 201:
				created++
			case 200:
				ok++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if created+ok == 0 {
		return Result{Status: "FAIL", Note: "no successful starts"}
	}
	if created > 1 {
		return Result{Status: "FAIL", Note: fmt.Sprintf("created=%d", created)}
	}
	return Result{Status: "PASS", Note: fmt.Sprintf("created=%d ok=%d", created, ok)}
}

func perfLoad(ctx context.Context, r *Runner, method, url string, payload any) Result {
	var b []byte
	if payload != nil {
		b, _ = json.Marshal(payload)
	}
	end := time.Now().Add(r.cfg.Duration)
	var count int64
	var errCount int64
	var mu sync.Mutex
	wg := sync.WaitGroup{}

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) {
				var reader io.Reader
				if b != nil {
					reader = strings.NewReader(string(b))
				}
				req, _ := http.NewRequestWithContext(ctx, method, url, reader)
				req.Header.Set("Content-Type", "application/json")
				resp, err := r.httpc.Do(req)
				if err != nil {
					mu.Lock()
					errCount++
					mu.Unlock()
					continue
				}
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				mu.Lock()
				count++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: "FAIL", Note: "no requests completed"}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: "PASS", Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount)}
}

func contains(list []int, v int) bool {
	for _, i := range list {
		if i == v {
			return true
		}
	}
	return false
}

func extractTables(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	re := regexp.MustCompile(`(?i)create\s+table\s+if\s+not\s+exists\s+([a-zA-Z0-9_]+)`)
	matches := re.FindAllStringSubmatch(string(b), -1)
	tables := make([]string, 0, len(matches))
	for _, m := range matches {
		tables = append(tables, m[1])
	}
	return tables, nil
}

func splitSQL(sql string) []string {
	lines := strings.Split(sql, "\n")
	filtered := make([]string, 0, len(lines))
	for _, line := range lines {
		l := strings.TrimSpace(line)
		if strings.HasPrefix(l, "--") || l == "" {
			continue
		}
		filtered = append(filtered, line)
	}
	cleaned := strings.Join(filtered, "\n")
	parts := strings.Split(cleaned, ";")
	stmts := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
