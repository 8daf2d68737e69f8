//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"timebank-go/internal/config"
	"timebank-go/internal/db"
	balancesdomain "timebank-go/internal/domain/balances"
	entriesdomain "timebank-go/internal/domain/entries"
	statsdomain "timebank-go/internal/domain/stats"
	tasksdomain "timebank-go/internal/domain/tasks"
	userdomain "timebank-go/internal/domain/user"
	"timebank-go/internal/notify"
	balancesrepo "timebank-go/internal/repository/postgres/balances"
	entriesrepo "timebank-go/internal/repository/postgres/entries"
	statsrepo "timebank-go/internal/repository/postgres/stats"
	tasksrepo "timebank-go/internal/repository/postgres/tasks"
	userrepo "timebank-go/internal/repository/postgres/user"
	"timebank-go/internal/transport/httpserver"
	"timebank-go/internal/transport/httpserver/handler"
	"timebank-go/internal/transport/httpserver/handler/admin"
	"timebank-go/internal/transport/httpserver/handler/balances"
	"timebank-go/internal/transport/httpserver/handler/common"
	"timebank-go/internal/transport/httpserver/handler/entries"
	"timebank-go/internal/transport/httpserver/handler/tasks"
	authmw "timebank-go/internal/transport/httpserver/middleware"
	"timebank-go/pkg/logger"
)

const jwtSecret = "e2e-secret"

const (
	adminID int64 = 1
	kidAID  int64 = 2
	kidBID  int64 = 3
)

type testEnv struct {
	server *httptest.Server
	db     *gorm.DB
	queue  *notify.Queue
	client *http.Client
}

func setupE2E(t *testing.T) *testEnv {
	t.Helper()

	dsn := os.Getenv("E2E_DB_DSN")
	if dsn == "" {
		t.Skip("E2E_DB_DSN not set; skipping e2e tests")
	}

	log := logger.Nop()
	cfg := config.Defaults()
	cfg.DB.DSN = dsn
	cfg.Auth.JWTSecret = jwtSecret
	cfg.Metrics.Enabled = false

	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		t.Fatalf("db connect: %v", err)
	}
	if _, err := db.Migrate(dbConn, cfg.DB.MigrationsDir, log); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := cleanDB(dbConn); err != nil {
		t.Fatalf("clean db: %v", err)
	}

	queue := notify.NewQueue(notify.NewLogSender(log), log, 1)

	userService := userdomain.NewService(userrepo.NewPostgres(dbConn))
	taskService := tasksdomain.NewService(tasksrepo.NewPostgres(dbConn))
	entryService := entriesdomain.NewService(entriesrepo.NewPostgres(dbConn), taskService, userService, queue, log)
	balanceService := balancesdomain.NewService(balancesrepo.NewPostgres(dbConn), userService, queue, log)
	statsService := statsdomain.NewService(statsrepo.NewPostgres(dbConn))

	handlers := handler.New(
		common.New(userService, log),
		entries.New(entryService, log),
		tasks.New(taskService, log),
		balances.New(balanceService, log),
		admin.New(entryService, balanceService, statsService, cfg.Cleanup.DefaultAge, log),
	)

	env := &testEnv{
		server: httptest.NewServer(httpserver.NewRouter(cfg, handlers, userService, log)),
		db:     dbConn,
		queue:  queue,
		client: &http.Client{Timeout: 5 * time.Second},
	}

	// Every caller needs a user row before it can be a transfer recipient.
	for _, id := range []int64{adminID, kidAID, kidBID} {
		resp, body := env.request(t, http.MethodGet, "/api/me", id, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("register user %d: %d %s", id, resp.StatusCode, string(body))
		}
	}
	return env
}

func (e *testEnv) Close() {
	e.server.Close()
	_ = e.queue.Close(context.Background())
	_ = db.Close(e.db)
}

func cleanDB(dbConn *gorm.DB) error {
	return dbConn.WithContext(context.Background()).Exec(
		"TRUNCATE TABLE balance_adjustments, time_transfers, user_time_balance, time_entries, household_tasks, users RESTART IDENTITY CASCADE",
	).Error
}

func tokenFor(t *testing.T, userID int64) string {
	t.Helper()
	if userID == 0 {
		return ""
	}

	role := "user"
	if userID == adminID {
		role = "admin"
	}
	claims := authmw.Claims{
		UserID: userID,
		Role:   role,
		Name:   fmt.Sprintf("User %d", userID),
		Email:  fmt.Sprintf("user%d@example.com", userID),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(jwtSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

// request sends an authenticated call; userID 0 sends no token.
func (e *testEnv) request(t *testing.T, method, path string, userID int64, payload interface{}) (*http.Response, []byte) {
	t.Helper()
	resp, body, err := e.send(method, path, tokenFor(t, userID), payload)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp, body
}

// send is safe to call from goroutines other than the test's.
func (e *testEnv) send(method, path, token string, payload interface{}) (*http.Response, []byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.server.URL+path, body)
	if err != nil {
		return nil, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return resp, respBody, nil
}

func decode(t *testing.T, body []byte, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(body, dst); err != nil {
		t.Fatalf("decode %q: %v", string(body), err)
	}
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type idResponse struct {
	ID int64 `json:"id"`
}

type entryResponse struct {
	ID     int64  `json:"id"`
	Hours  string `json:"hours"`
	Status string `json:"status"`
}

type balanceResponse struct {
	CurrentBalance string `json:"current_balance"`
}

type reconcileResponse struct {
	StoredBalance  string `json:"stored_balance"`
	DerivedBalance string `json:"derived_balance"`
	Consistent     bool   `json:"consistent"`
}

func (e *testEnv) balanceOf(t *testing.T, userID int64) string {
	t.Helper()
	resp, body := e.request(t, http.MethodGet, "/api/balance", userID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("balance: %d %s", resp.StatusCode, string(body))
	}
	var balance balanceResponse
	decode(t, body, &balance)
	return balance.CurrentBalance
}

func (e *testEnv) assertConsistent(t *testing.T, userID int64) {
	t.Helper()
	resp, body := e.request(t, http.MethodGet, fmt.Sprintf("/api/admin/users/%d/reconcile", userID), adminID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reconcile: %d %s", resp.StatusCode, string(body))
	}
	var report reconcileResponse
	decode(t, body, &report)
	if !report.Consistent {
		t.Fatalf("user %d drifted: stored %s derived %s", userID, report.StoredBalance, report.DerivedBalance)
	}
}

func (e *testEnv) createTask(t *testing.T) int64 {
	t.Helper()
	resp, body := e.request(t, http.MethodPost, "/api/admin/tasks", adminID, map[string]interface{}{
		"name":          "Dishes",
		"weight_factor": "1.5",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create task: %d %s", resp.StatusCode, string(body))
	}
	var task idResponse
	decode(t, body, &task)
	return task.ID
}

func (e *testEnv) submitEntry(t *testing.T, userID, taskID int64, minutes int) entryResponse {
	t.Helper()
	resp, body := e.request(t, http.MethodPost, "/api/entries", userID, map[string]interface{}{
		"entry_type":    "productive",
		"task_id":       taskID,
		"input_minutes": minutes,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create entry: %d %s", resp.StatusCode, string(body))
	}
	var entry entryResponse
	decode(t, body, &entry)
	return entry
}

func TestE2EHealthAndAuth(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	resp, body := env.request(t, http.MethodGet, "/api/health", 0, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, string(body))
	}

	resp, body = env.request(t, http.MethodGet, "/api/me", 0, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", resp.StatusCode, string(body))
	}

	resp, _ = env.request(t, http.MethodGet, "/api/admin/stats", kidAID, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", resp.StatusCode)
	}
}

func TestE2EApprovalCreditsOnce(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	taskID := env.createTask(t)
	entry := env.submitEntry(t, kidAID, taskID, 60)
	if entry.Hours != "1.50" || entry.Status != "pending" {
		t.Fatalf("unexpected entry %+v", entry)
	}

	const approvers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		statuses = map[int]int{}
	)
	adminToken := tokenFor(t, adminID)
	for i := 0; i < approvers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, _, err := env.send(http.MethodPost, fmt.Sprintf("/api/admin/entries/%d/approve", entry.ID), adminToken, nil)
			if err != nil {
				t.Errorf("approve: %v", err)
				return
			}
			mu.Lock()
			statuses[resp.StatusCode]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	if statuses[http.StatusOK] != 1 || statuses[http.StatusNotFound] != approvers-1 {
		t.Fatalf("expected one approval and %d not-found, got %v", approvers-1, statuses)
	}
	if got := env.balanceOf(t, kidAID); got != "1.50" {
		t.Fatalf("expected balance 1.50, got %s", got)
	}
	env.assertConsistent(t, kidAID)
}

func TestE2EConcurrentTransfersNeverOverdraw(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	resp, body := env.request(t, http.MethodPut, fmt.Sprintf("/api/admin/users/%d/balance", kidAID), adminID, map[string]interface{}{
		"balance": "5",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set balance: %d %s", resp.StatusCode, string(body))
	}

	const attempts = 10
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		statuses = map[int]int{}
	)
	senderToken := tokenFor(t, kidAID)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, body, err := env.send(http.MethodPost, "/api/transfers", senderToken, map[string]interface{}{
				"to_user_id": kidBID,
				"hours":      "1",
			})
			if err != nil {
				t.Errorf("transfer: %v", err)
				return
			}
			if resp.StatusCode == http.StatusUnprocessableEntity {
				var envelope errorEnvelope
				if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error.Code != "insufficient_balance" {
					t.Errorf("unexpected rejection body %s", string(body))
				}
			}
			mu.Lock()
			statuses[resp.StatusCode]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	if statuses[http.StatusCreated] != 5 || statuses[http.StatusUnprocessableEntity] != 5 {
		t.Fatalf("expected 5 transfers and 5 rejections, got %v", statuses)
	}
	if got := env.balanceOf(t, kidAID); got != "0.00" {
		t.Fatalf("expected sender at 0.00, got %s", got)
	}
	if got := env.balanceOf(t, kidBID); got != "5.00" {
		t.Fatalf("expected recipient at 5.00, got %s", got)
	}
	env.assertConsistent(t, kidAID)
	env.assertConsistent(t, kidBID)
}

func TestE2ECleanupReversesApprovedHours(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	taskID := env.createTask(t)
	entry := env.submitEntry(t, kidAID, taskID, 40)
	resp, body := env.request(t, http.MethodPost, fmt.Sprintf("/api/admin/entries/%d/approve", entry.ID), adminID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("approve: %d %s", resp.StatusCode, string(body))
	}

	if err := env.db.Exec("UPDATE time_entries SET created_at = NOW() - INTERVAL '10 days' WHERE id = ?", entry.ID).Error; err != nil {
		t.Fatalf("age entry: %v", err)
	}

	resp, body = env.request(t, http.MethodPost, "/api/admin/entries/cleanup", adminID, map[string]interface{}{
		"older_than": "7d",
		"mode":       "reverse",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cleanup: %d %s", resp.StatusCode, string(body))
	}
	var result struct {
		DeletedEntries int64  `json:"deleted_entries"`
		BalanceDelta   string `json:"balance_delta"`
	}
	decode(t, body, &result)
	if result.DeletedEntries != 1 || result.BalanceDelta != "-1.00" {
		t.Fatalf("unexpected cleanup result %+v", result)
	}

	if got := env.balanceOf(t, kidAID); got != "0.00" {
		t.Fatalf("expected balance back to 0.00, got %s", got)
	}
	env.assertConsistent(t, kidAID)
}
