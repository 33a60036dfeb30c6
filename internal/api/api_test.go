package api

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"brigade/internal/auth"
	"brigade/internal/config"
	"brigade/internal/live"
	"brigade/internal/models"
	"brigade/internal/monitoring"
	"brigade/internal/store"
	"brigade/internal/tenant"
)

const (
	testSecret   = "test-secret"
	testBotToken = "12345:TEST-TOKEN"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	server  *Server
	store   *store.Memory
	manager string // bearer token, manager role
	staff   string // bearer token, staff role
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mem := store.NewMemory()
	tenants := []config.Tenant{
		{Slug: "demo", Name: "Demo Kitchen", Database: "d1", BotToken: testBotToken, WebhookSecret: "hook", ManagerIDs: []int64{1}},
		{Slug: "other", Name: "Other Kitchen", Database: "d2", BotToken: "999:OTHER", WebhookSecret: "hook2"},
	}
	stores := map[string]store.Store{"d1": mem, "d2": store.NewMemory()}
	registry, err := tenant.NewRegistry(tenants, func(db string) store.Store { return stores[db] })
	require.NoError(t, err)

	metrics := monitoring.New(prometheus.NewRegistry())
	hub := live.NewHub(zap.NewNop())
	server := NewServer(zap.NewNop(), registry, metrics, hub, nil, testSecret)

	now := time.Now()
	managerTok, err := auth.IssueToken(testSecret, "demo",
		&models.User{ID: 1, FirstName: "Maria", Role: models.RoleManager}, now)
	require.NoError(t, err)
	staffTok, err := auth.IssueToken(testSecret, "demo",
		&models.User{ID: 2, FirstName: "Sam", Role: models.RoleStaff}, now)
	require.NoError(t, err)

	return &testEnv{server: server, store: mem, manager: managerTok, staff: staffTok}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(TenantHeader, "demo")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.server.Router().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

func TestTenantResolution(t *testing.T) {
	e := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recipes", nil)
	w := httptest.NewRecorder()
	e.server.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/recipes", nil)
	req.Header.Set(TenantHeader, "nope")
	w = httptest.NewRecorder()
	e.server.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthRequired(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodGet, "/api/v1/recipes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Token minted for another tenant is rejected.
	otherTok, err := auth.IssueToken(testSecret, "other",
		&models.User{ID: 9, FirstName: "Eve"}, time.Now())
	require.NoError(t, err)
	w = e.do(t, http.MethodGet, "/api/v1/recipes", otherTok, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRecipeLifecycle(t *testing.T) {
	e := newTestEnv(t)

	create := map[string]any{
		"name":     "Beef Bourguignon",
		"category": "main",
		"servings": 4,
		"ingredients": []map[string]any{
			{"name": "Beef", "quantity": 1.2, "unit": "kg"},
		},
		"steps": []string{"Brown the beef", "Braise"},
		"tags":  []string{"beef"},
	}
	w := e.do(t, http.MethodPost, "/api/v1/recipes", e.staff, create)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	recipe := decode[models.Recipe](t, w)
	require.NotEmpty(t, recipe.ID)

	w = e.do(t, http.MethodGet, "/api/v1/recipes?q=beef", e.staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Recipe](t, w), 1)

	create["name"] = "Beef Bourguignon v2"
	w = e.do(t, http.MethodPut, "/api/v1/recipes/"+recipe.ID, e.staff, create)
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[models.Recipe](t, w)
	assert.Equal(t, "Beef Bourguignon v2", updated.Name)
	assert.Equal(t, recipe.CreatedAt.Unix(), updated.CreatedAt.Unix())

	// Scaling doubles quantities without persisting.
	w = e.do(t, http.MethodPost, "/api/v1/recipes/"+recipe.ID+"/scale", e.staff, map[string]any{"servings": 8})
	require.Equal(t, http.StatusOK, w.Code)
	scaled := decode[struct {
		Ingredients []models.Ingredient `json:"ingredients"`
	}](t, w)
	require.Len(t, scaled.Ingredients, 1)
	assert.InDelta(t, 2.4, scaled.Ingredients[0].Quantity, 1e-9)

	// Missing servings is rejected.
	w = e.do(t, http.MethodPost, "/api/v1/recipes", e.staff, map[string]any{"name": "No Servings"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecipeDelete_ManagerOnly(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/api/v1/recipes", e.manager, map[string]any{"name": "Stock", "servings": 1})
	require.Equal(t, http.StatusCreated, w.Code)
	recipe := decode[models.Recipe](t, w)

	w = e.do(t, http.MethodDelete, "/api/v1/recipes/"+recipe.ID, e.staff, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Default delete archives; the recipe is gone from the default list
	// but still fetchable.
	w = e.do(t, http.MethodDelete, "/api/v1/recipes/"+recipe.ID, e.manager, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = e.do(t, http.MethodGet, "/api/v1/recipes", e.staff, nil)
	assert.Len(t, decode[[]models.Recipe](t, w), 0)
	w = e.do(t, http.MethodGet, "/api/v1/recipes/"+recipe.ID, e.staff, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodDelete, "/api/v1/recipes/"+recipe.ID+"?hard=true", e.manager, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = e.do(t, http.MethodGet, "/api/v1/recipes/"+recipe.ID, e.staff, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func createTestSheet(t *testing.T, e *testEnv) models.InventorySheet {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/inventory", e.manager, map[string]any{
		"name": "Walk-in",
		"area": "cold",
		"items": []map[string]any{
			{"name": "Onions", "unit": "kg", "expected": 10},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.InventorySheet](t, w)
}

func TestSheetCreate_ManagerOnly(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodPost, "/api/v1/inventory", e.staff, map[string]any{"name": "X"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSheetLockConflict(t *testing.T) {
	e := newTestEnv(t)
	sheet := createTestSheet(t, e)

	w := e.do(t, http.MethodPost, "/api/v1/inventory/"+sheet.ID+"/lock", e.manager, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// A second user hits 423 and learns who holds the lock.
	w = e.do(t, http.MethodPost, "/api/v1/inventory/"+sheet.ID+"/lock", e.staff, nil)
	require.Equal(t, http.StatusLocked, w.Code)
	conflict := decode[struct {
		LockedBy models.Actor `json:"lockedBy"`
	}](t, w)
	assert.Equal(t, int64(1), conflict.LockedBy.ID)

	// Writes from the non-holder are rejected too.
	w = e.do(t, http.MethodPut, "/api/v1/inventory/"+sheet.ID, e.staff, map[string]any{
		"items": []map[string]any{{"name": "Onions", "unit": "kg", "expected": 10, "counted": 9}},
	})
	assert.Equal(t, http.StatusLocked, w.Code)

	// The holder's write goes through.
	w = e.do(t, http.MethodPut, "/api/v1/inventory/"+sheet.ID, e.manager, map[string]any{
		"items": []map[string]any{{"name": "Onions", "unit": "kg", "expected": 10, "counted": 9}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 9.0, decode[models.InventorySheet](t, w).Items[0].Counted)
}

func TestSheetForceUnlock(t *testing.T) {
	e := newTestEnv(t)
	sheet := createTestSheet(t, e)

	w := e.do(t, http.MethodPost, "/api/v1/inventory/"+sheet.ID+"/lock", e.staff, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Force is a manager-only escape hatch, even on your own lock.
	w = e.do(t, http.MethodPost, "/api/v1/inventory/"+sheet.ID+"/unlock?force=true", e.staff, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// A non-holder cannot release the lock, a manager can force it.
	w = e.do(t, http.MethodPost, "/api/v1/inventory/"+sheet.ID+"/unlock", e.manager, nil)
	assert.Equal(t, http.StatusLocked, w.Code)
	w = e.do(t, http.MethodPost, "/api/v1/inventory/"+sheet.ID+"/unlock?force=true", e.manager, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode[models.InventorySheet](t, w).LockedBy)

	// The holder releases their own lock without force.
	w = e.do(t, http.MethodPost, "/api/v1/inventory/"+sheet.ID+"/lock", e.staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = e.do(t, http.MethodPost, "/api/v1/inventory/"+sheet.ID+"/unlock", e.staff, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSheetDraftAndSubmit(t *testing.T) {
	e := newTestEnv(t)
	sheet := createTestSheet(t, e)

	w := e.do(t, http.MethodPut, "/api/v1/inventory/"+sheet.ID+"/draft", e.staff, map[string]any{
		"values": map[string]float64{"Onions": 7.5},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/inventory/"+sheet.ID, e.staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[models.InventorySheet](t, w)
	require.Contains(t, got.Drafts, "2")
	assert.Equal(t, 7.5, got.Drafts["2"].Values["Onions"])

	w = e.do(t, http.MethodPost, "/api/v1/inventory/"+sheet.ID+"/submit", e.staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	submitted := decode[models.InventorySheet](t, w)
	assert.Equal(t, models.SheetSubmitted, submitted.Status)
	assert.NotContains(t, submitted.Drafts, "2")
}

func TestShiftValidationAndPublish(t *testing.T) {
	e := newTestEnv(t)

	// End before start is rejected.
	w := e.do(t, http.MethodPost, "/api/v1/shifts", e.manager, map[string]any{
		"staffId": 2, "staffName": "Sam", "day": "2026-09-01", "start": "16:00", "end": "08:00",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Staff cannot create shifts at all.
	w = e.do(t, http.MethodPost, "/api/v1/shifts", e.staff, map[string]any{
		"staffId": 2, "staffName": "Sam", "day": "2026-09-01", "start": "08:00", "end": "16:00",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodPost, "/api/v1/shifts", e.manager, map[string]any{
		"staffId": 2, "staffName": "Sam", "day": "2026-09-01", "start": "08:00", "end": "16:00", "station": "grill",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Unpublished shifts are invisible to staff but visible to managers.
	w = e.do(t, http.MethodGet, "/api/v1/shifts", e.staff, nil)
	assert.Len(t, decode[[]models.Shift](t, w), 0)
	w = e.do(t, http.MethodGet, "/api/v1/shifts", e.manager, nil)
	assert.Len(t, decode[[]models.Shift](t, w), 1)

	w = e.do(t, http.MethodPost, "/api/v1/shifts/publish?from=2026-09-01&to=2026-09-07", e.manager, nil)
	require.Equal(t, http.StatusOK, w.Code)
	published := decode[struct {
		Published int `json:"published"`
	}](t, w)
	assert.Equal(t, 1, published.Published)

	w = e.do(t, http.MethodGet, "/api/v1/shifts", e.staff, nil)
	assert.Len(t, decode[[]models.Shift](t, w), 1)

	// Publish without a range is rejected.
	w = e.do(t, http.MethodPost, "/api/v1/shifts/publish", e.manager, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// A non-numeric staff filter is a client error, not "all staff".
	w = e.do(t, http.MethodGet, "/api/v1/shifts?staff=abc", e.manager, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWastageFlow(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/api/v1/wastage", e.staff, map[string]any{
		"itemName": "Cream", "quantity": 2, "unit": "l", "reason": "spoiled", "costEstimate": 6,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	entry := decode[models.WastageEntry](t, w)
	assert.Equal(t, int64(2), entry.RecordedBy.ID)

	w = e.do(t, http.MethodPost, "/api/v1/wastage", e.staff, map[string]any{
		"itemName": "Milk", "quantity": 1, "unit": "l", "reason": "invented-reason",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/wastage?reason=spoiled", e.staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.WastageEntry](t, w), 1)

	w = e.do(t, http.MethodGet, "/api/v1/wastage/summary", e.staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	rows := decode[[]models.WastageSummary](t, w)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0].Count)

	w = e.do(t, http.MethodDelete, "/api/v1/wastage/"+entry.ID, e.staff, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = e.do(t, http.MethodDelete, "/api/v1/wastage/"+entry.ID, e.manager, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTelegramWebhookSecret(t *testing.T) {
	e := newTestEnv(t)
	update := map[string]any{"update_id": 1}

	body, _ := json.Marshal(update)
	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook/demo", bytes.NewReader(body))
	w := httptest.NewRecorder()
	e.server.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/telegram/webhook/demo", bytes.NewReader(body))
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", "hook")
	w = httptest.NewRecorder()
	e.server.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/telegram/webhook/ghost", bytes.NewReader(body))
	w = httptest.NewRecorder()
	e.server.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTelegramAuth(t *testing.T) {
	e := newTestEnv(t)

	raw := signTestInitData(testBotToken, 42, "Ada")
	w := e.do(t, http.MethodPost, "/api/v1/auth/telegram", "", map[string]any{"initData": raw})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[struct {
		Token string `json:"token"`
		User  struct {
			ID   int64       `json:"id"`
			Role models.Role `json:"role"`
		} `json:"user"`
	}](t, w)
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, int64(42), resp.User.ID)
	assert.Equal(t, models.RoleStaff, resp.User.Role)

	// The issued token works against the API.
	w = e.do(t, http.MethodGet, "/api/v1/recipes", resp.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// A configured manager logs in with the manager role.
	raw = signTestInitData(testBotToken, 1, "Maria")
	w = e.do(t, http.MethodPost, "/api/v1/auth/telegram", "", map[string]any{"initData": raw})
	require.Equal(t, http.StatusOK, w.Code)
	resp2 := decode[struct {
		User struct {
			Role models.Role `json:"role"`
		} `json:"user"`
	}](t, w)
	assert.Equal(t, models.RoleManager, resp2.User.Role)

	// initData signed with the wrong bot token is rejected.
	raw = signTestInitData("999:WRONG", 42, "Ada")
	w = e.do(t, http.MethodPost, "/api/v1/auth/telegram", "", map[string]any{"initData": raw})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEventsWebSocket_QueryAuth(t *testing.T) {
	e := newTestEnv(t)
	connected := make(chan int, 4)
	e.server.hub.OnClientCount(func(tenant string, n int) {
		if tenant == "demo" {
			connected <- n
		}
	})

	srv := httptest.NewServer(e.server.Router())
	defer srv.Close()
	base := "ws" + strings.TrimPrefix(srv.URL, "http")

	// Browsers cannot set headers on WebSocket requests, so tenant and
	// token ride in the query string. Without a token the upgrade is
	// refused.
	_, resp, err := websocket.DefaultDialer.Dial(base+"/api/v1/events?tenant=demo", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(base+"/api/v1/events?tenant=demo&token="+e.staff, nil)
	require.NoError(t, err)
	defer conn.Close()

	select {
	case n := <-connected:
		require.Equal(t, 1, n)
	case <-time.After(2 * time.Second):
		t.Fatal("client never registered with the hub")
	}

	e.server.hub.Broadcast("demo", live.Event{Type: live.EventSheetLocked, SheetID: "s1", By: "Maria"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got live.Event
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, live.EventSheetLocked, got.Type)
	assert.Equal(t, "s1", got.SheetID)
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	e.server.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

// signTestInitData builds a Mini App initData payload signed the way
// Telegram signs it.
func signTestInitData(botToken string, userID int64, firstName string) string {
	values := url.Values{}
	values.Set("user", fmt.Sprintf(`{"id":%d,"first_name":%q}`, userID, firstName))
	values.Set("auth_date", fmt.Sprintf("%d", time.Now().Unix()))

	lines := make([]string, 0, len(values))
	for key := range values {
		lines = append(lines, key+"="+values.Get(key))
	}
	sort.Strings(lines)

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(lines, "\n")))

	values.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return values.Encode()
}
