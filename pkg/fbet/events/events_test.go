package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lukasweber/fbet/pkg/fbet/auth"
	"github.com/lukasweber/fbet/pkg/fbet/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	models.AutoMigrate(db)
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) models.User {
	hash, _ := auth.HashPassword("password123")
	user := models.User{Email: email, PasswordHash: hash, Name: "Test User", Active: true}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

func createTestGroup(t *testing.T, db *gorm.DB, admin models.User, members ...models.User) models.Group {
	group := models.Group{Name: "Test Group", CreatedBy: admin.ID, InviteToken: "tok-" + admin.Email}
	if err := db.Create(&group).Error; err != nil {
		t.Fatalf("Failed to create test group: %v", err)
	}
	db.Create(&models.GroupMembership{UserID: admin.ID, GroupID: group.ID})
	for _, m := range members {
		db.Create(&models.GroupMembership{UserID: m.ID, GroupID: group.ID})
	}
	return group
}

func setupTestRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewHandler(db, zap.NewNop())
	handler.RegisterRoutes(r.Group("/events", auth.Middleware(db)))
	return r
}

func getAuthHeader(user models.User) string {
	token, _ := auth.GenerateToken(user.ID, user.Email)
	return "Bearer " + token
}

func TestCreateEvent(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	admin := createTestUser(t, db, "admin@example.com")
	group := createTestGroup(t, db, admin)

	when := time.Now().UTC().Add(48 * time.Hour)
	body, _ := json.Marshal(CreateEventRequest{
		GroupID:       group.ID,
		Title:         "UFC 300",
		Question:      "Who wins the main event?",
		Options:       []string{"Fighter A", "Fighter B", "Draw"},
		EventDatetime: &when,
	})
	req, _ := http.NewRequest("POST", "/events", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", getAuthHeader(admin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var response EventResponse
	json.Unmarshal(resp.Body.Bytes(), &response)
	if response.Title != "UFC 300" {
		t.Errorf("Expected title 'UFC 300', got %s", response.Title)
	}
	if len(response.Options) != 3 {
		t.Errorf("Expected 3 options, got %d", len(response.Options))
	}
	if response.WinningOption != nil {
		t.Error("A new event must not have a winning option")
	}
}

func TestCreateEventNotAdmin(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	admin := createTestUser(t, db, "admin@example.com")
	member := createTestUser(t, db, "member@example.com")
	group := createTestGroup(t, db, admin, member)

	body, _ := json.Marshal(CreateEventRequest{
		GroupID:  group.ID,
		Title:    "T",
		Question: "Q?",
		Options:  []string{"A", "B"},
	})
	req, _ := http.NewRequest("POST", "/events", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", getAuthHeader(member))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestCreateEventGroupNotFound(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	user := createTestUser(t, db, "test@example.com")

	body, _ := json.Marshal(CreateEventRequest{
		GroupID:  999,
		Title:    "T",
		Question: "Q?",
		Options:  []string{"A"},
	})
	req, _ := http.NewRequest("POST", "/events", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", getAuthHeader(user))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestCreateEventWithoutOptions(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	admin := createTestUser(t, db, "admin@example.com")
	group := createTestGroup(t, db, admin)

	body, _ := json.Marshal(map[string]interface{}{
		"group_id": group.ID,
		"title":    "T",
		"question": "Q?",
		"options":  []string{},
	})
	req, _ := http.NewRequest("POST", "/events", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", getAuthHeader(admin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestGetEventMemberOnly(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	admin := createTestUser(t, db, "admin@example.com")
	outsider := createTestUser(t, db, "outsider@example.com")
	group := createTestGroup(t, db, admin)

	event := models.Event{GroupID: group.ID, CreatedBy: admin.ID, Title: "T", Question: "Q?", Options: []string{"A", "B"}}
	db.Create(&event)

	req, _ := http.NewRequest("GET", fmt.Sprintf("/events/%d", event.ID), nil)
	req.Header.Set("Authorization", getAuthHeader(admin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Errorf("Expected status 200 for a member, got %d: %s", resp.Code, resp.Body.String())
	}

	req, _ = http.NewRequest("GET", fmt.Sprintf("/events/%d", event.ID), nil)
	req.Header.Set("Authorization", getAuthHeader(outsider))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Errorf("Expected status 403 for a non-member, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestListEventsForGroup(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	admin := createTestUser(t, db, "admin@example.com")
	group := createTestGroup(t, db, admin)

	db.Create(&models.Event{GroupID: group.ID, CreatedBy: admin.ID, Title: "First", Question: "Q?", Options: []string{"A"}})
	db.Create(&models.Event{GroupID: group.ID, CreatedBy: admin.ID, Title: "Second", Question: "Q?", Options: []string{"A"}})

	req, _ := http.NewRequest("GET", fmt.Sprintf("/events/group/%d", group.ID), nil)
	req.Header.Set("Authorization", getAuthHeader(admin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var events []EventResponse
	json.Unmarshal(resp.Body.Bytes(), &events)
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[0].Title != "First" || events[1].Title != "Second" {
		t.Errorf("Expected creation order, got %s then %s", events[0].Title, events[1].Title)
	}
}

func TestSetResult(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	admin := createTestUser(t, db, "admin@example.com")
	group := createTestGroup(t, db, admin)

	event := models.Event{GroupID: group.ID, CreatedBy: admin.ID, Title: "T", Question: "Q?", Options: []string{"Fighter A", "Fighter B"}}
	db.Create(&event)

	body, _ := json.Marshal(SetResultRequest{EventID: event.ID, WinningOption: "Fighter A"})
	req, _ := http.NewRequest("POST", "/events/result", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", getAuthHeader(admin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var stored models.Event
	db.First(&stored, event.ID)
	if stored.WinningOption == nil || *stored.WinningOption != "Fighter A" {
		t.Errorf("Expected winning option 'Fighter A', got %v", stored.WinningOption)
	}
}

func TestSetResultCaseSensitive(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	admin := createTestUser(t, db, "admin@example.com")
	group := createTestGroup(t, db, admin)

	event := models.Event{GroupID: group.ID, CreatedBy: admin.ID, Title: "T", Question: "Q?", Options: []string{"Fighter A", "Fighter B"}}
	db.Create(&event)

	// The stored result is what scoring compares against, so the admin
	// has to name the option exactly.
	body, _ := json.Marshal(SetResultRequest{EventID: event.ID, WinningOption: "fighter a"})
	req, _ := http.NewRequest("POST", "/events/result", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", getAuthHeader(admin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d: %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), "Fighter A") {
		t.Errorf("Expected the error to name the valid options, got %s", resp.Body.String())
	}
}

func TestSetResultNotAdmin(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	admin := createTestUser(t, db, "admin@example.com")
	member := createTestUser(t, db, "member@example.com")
	group := createTestGroup(t, db, admin, member)

	event := models.Event{GroupID: group.ID, CreatedBy: admin.ID, Title: "T", Question: "Q?", Options: []string{"A", "B"}}
	db.Create(&event)

	body, _ := json.Marshal(SetResultRequest{EventID: event.ID, WinningOption: "A"})
	req, _ := http.NewRequest("POST", "/events/result", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", getAuthHeader(member))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestSetResultOverwrite(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	admin := createTestUser(t, db, "admin@example.com")
	group := createTestGroup(t, db, admin)

	first := "A"
	event := models.Event{GroupID: group.ID, CreatedBy: admin.ID, Title: "T", Question: "Q?", Options: []string{"A", "B"}, WinningOption: &first}
	db.Create(&event)

	body, _ := json.Marshal(SetResultRequest{EventID: event.ID, WinningOption: "B"})
	req, _ := http.NewRequest("POST", "/events/result", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", getAuthHeader(admin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var stored models.Event
	db.First(&stored, event.ID)
	if stored.WinningOption == nil || *stored.WinningOption != "B" {
		t.Errorf("Expected result to be overwritten with 'B', got %v", stored.WinningOption)
	}
}

func TestSetResultEventNotFound(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	user := createTestUser(t, db, "test@example.com")

	body, _ := json.Marshal(SetResultRequest{EventID: 999, WinningOption: "A"})
	req, _ := http.NewRequest("POST", "/events/result", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", getAuthHeader(user))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d: %s", resp.Code, resp.Body.String())
	}
}
