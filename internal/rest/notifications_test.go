package rest_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nvhoang/shopfeed/internal/credential"
	"github.com/nvhoang/shopfeed/internal/model"
	"github.com/nvhoang/shopfeed/internal/rest"
)

func TestUserNotifications(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id":3,"type":"ORDER","title":"Shipped","message":"Order #3 shipped","screen":"orderDetail","params":{"orderId":3},"read":false},
			{"id":1,"type":"POST","title":"New post","message":"A seller you follow posted","read":true}
		]`))
	}))
	defer srv.Close()

	client := rest.NewClient(srv.URL, credential.Static{User: "17", Bearer: "tok-abc"})

	list, err := client.UserNotifications(context.Background(), "17")
	if err != nil {
		t.Fatalf("fetching notifications: %v", err)
	}

	if gotPath != "/notification/user/17" {
		t.Errorf("request path = %q, want /notification/user/17", gotPath)
	}
	if gotAuth != "Bearer tok-abc" {
		t.Errorf("authorization header = %q, want bearer token", gotAuth)
	}

	if len(list) != 2 {
		t.Fatalf("got %d notifications, want 2", len(list))
	}
	if list[0].ID == nil || *list[0].ID != 3 {
		t.Errorf("first id = %v, want 3", list[0].ID)
	}
	if v, ok := list[0].Params["orderId"].(float64); list[0].Route != "orderDetail" || !ok || v != 3 {
		t.Errorf("deep link not parsed: route=%q params=%v", list[0].Route, list[0].Params)
	}
	if !list[1].Read {
		t.Error("read flag not parsed")
	}
}

func TestSendUserNotification(t *testing.T) {
	var gotMethod, gotPath, gotContentType string
	var gotBody model.Notification
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		w.Write([]byte(`{"id":11,"type":"ORDER","title":"Shipped","message":"on its way"}`))
	}))
	defer srv.Close()

	client := rest.NewClient(srv.URL, credential.Static{User: "17", Bearer: "tok"})

	created, err := client.SendUserNotification(context.Background(), "17", model.Notification{
		Category: model.CategoryOrder,
		Title:    "Shipped",
		Message:  "on its way",
	})
	if err != nil {
		t.Fatalf("sending notification: %v", err)
	}

	if gotMethod != http.MethodPost || gotPath != "/notification/user/17" {
		t.Errorf("request = %s %s, want POST /notification/user/17", gotMethod, gotPath)
	}
	if gotContentType != "application/json" {
		t.Errorf("content type = %q, want application/json", gotContentType)
	}
	if gotBody.Title != "Shipped" || gotBody.Category != model.CategoryOrder {
		t.Errorf("request body = %+v, want the submitted notification", gotBody)
	}
	if created.ID == nil || *created.ID != 11 {
		t.Errorf("created id = %v, want 11", created.ID)
	}
}

func TestSendGlobalNotification(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"id":12,"title":"Sale","message":"today only"}`))
	}))
	defer srv.Close()

	client := rest.NewClient(srv.URL, credential.Static{User: "17", Bearer: "tok"})

	created, err := client.SendGlobalNotification(context.Background(), model.Notification{
		Title:   "Sale",
		Message: "today only",
	})
	if err != nil {
		t.Fatalf("sending global notification: %v", err)
	}
	if gotPath != "/notification/all" {
		t.Errorf("request path = %q, want /notification/all", gotPath)
	}
	if created.ID == nil || *created.ID != 12 {
		t.Errorf("created id = %v, want 12", created.ID)
	}
}

func TestUserNotificationsUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := rest.NewClient(srv.URL, credential.Static{User: "17", Bearer: "expired"})

	_, err := client.UserNotifications(context.Background(), "17")
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	if !rest.IsAuthError(err) {
		t.Errorf("IsAuthError(%v) = false, want true", err)
	}
}

func TestUserNotificationsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := rest.NewClient(srv.URL, credential.Static{User: "17", Bearer: "tok"})

	_, err := client.UserNotifications(context.Background(), "17")
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if rest.IsAuthError(err) {
		t.Error("500 must not be classified as an auth error")
	}
}

func TestUserNotificationsRetriesOnRateLimit(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := rest.NewClient(srv.URL, credential.Static{User: "17", Bearer: "tok"})

	list, err := client.UserNotifications(context.Background(), "17")
	if err != nil {
		t.Fatalf("fetching after rate limit: %v", err)
	}
	if calls != 2 {
		t.Errorf("server saw %d calls, want 2", calls)
	}
	if len(list) != 0 {
		t.Errorf("got %d notifications, want 0", len(list))
	}
}
