package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"buzz-backend/internal/models"
	"buzz-backend/internal/twitterapi"
)

// scoringAPIStub serves canned account info and scores
func scoringAPIStub(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/info/"):
			w.Write([]byte(`{"screen_name":"alpha","name":"Alpha","avatar":"https://img/a.png","followers_count":5000}`))
		case strings.HasPrefix(r.URL.Path, "/score/"):
			w.Write([]byte(`{"score":91.2}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestSubmitKolScoresAndStoresPending(t *testing.T) {
	db := setupTestDB(t)
	server := scoringAPIStub(t)
	defer server.Close()

	service := NewKolService(db, twitterapi.NewClient("key", server.URL))

	kol, err := service.Submit(context.Background(), "@alpha", "defi")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if kol.Handle != "alpha" {
		t.Errorf("expected stripped handle alpha, got %s", kol.Handle)
	}
	if kol.Score != 91.2 {
		t.Errorf("expected score 91.2, got %f", kol.Score)
	}
	if kol.FollowersCount != 5000 {
		t.Errorf("expected 5000 followers, got %d", kol.FollowersCount)
	}
	if kol.Status != models.KolStatusPending {
		t.Errorf("expected PENDING, got %s", kol.Status)
	}

	// Same handle again is a duplicate
	if _, err := service.Submit(context.Background(), "alpha", "defi"); !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestConfirmKol(t *testing.T) {
	db := setupTestDB(t)
	service := NewKolService(db, nil)

	kol := models.Kol{Handle: "beta", Status: models.KolStatusPending}
	db.Create(&kol)

	if err := service.Confirm(kol.ID); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}

	var updated models.Kol
	db.First(&updated, kol.ID)
	if updated.Status != models.KolStatusConfirmed {
		t.Errorf("expected CONFIRMED, got %s", updated.Status)
	}

	if err := service.Confirm(99999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListKolsFiltersAndOrders(t *testing.T) {
	db := setupTestDB(t)
	service := NewKolService(db, nil)

	db.Create(&models.Kol{Handle: "low", Area: "defi", Status: models.KolStatusConfirmed, Score: 10})
	db.Create(&models.Kol{Handle: "high", Area: "defi", Status: models.KolStatusConfirmed, Score: 90})
	db.Create(&models.Kol{Handle: "gaming", Area: "gaming", Status: models.KolStatusConfirmed, Score: 50})
	db.Create(&models.Kol{Handle: "pending", Area: "defi", Status: models.KolStatusPending, Score: 99})

	kols, total, err := service.List("defi", models.KolStatusConfirmed, 1, 20)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 2 {
		t.Errorf("expected 2 matches, got %d", total)
	}
	if len(kols) != 2 || kols[0].Handle != "high" || kols[1].Handle != "low" {
		t.Errorf("expected score-descending order high,low, got %+v", kols)
	}
}
