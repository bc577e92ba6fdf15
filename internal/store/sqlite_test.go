package store_test

import (
	"context"
	"testing"

	"github.com/nvhoang/shopfeed/internal/model"
	"github.com/nvhoang/shopfeed/tests/testutil"
)

func TestLoadFeedAbsentKey(t *testing.T) {
	s := testutil.NewTestMirror(t)

	list, ok, err := s.LoadFeed(context.Background())
	if err != nil {
		t.Fatalf("loading absent feed: %v", err)
	}
	if ok {
		t.Error("ok = true for never-persisted feed, want false")
	}
	if list != nil {
		t.Errorf("list = %v, want nil", list)
	}
}

func TestSaveAndLoadFeedRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestMirror(t)

	id := int64(42)
	in := []model.Notification{
		{
			ID:        &id,
			ClientKey: "k1",
			Scope:     model.ScopePersonal,
			Category:  model.CategoryOrder,
			Title:     "Order shipped",
			Message:   "Your order #42 is on its way",
			Route:     "orderDetail",
			Params:    map[string]any{"orderId": "42"},
			Date:      "2026-08-30T10:00:00Z",
			Read:      true,
		},
		{
			ClientKey: "k2",
			Scope:     model.ScopeGlobal,
			Title:     "Sale",
			Message:   "Weekend sale starts now",
		},
	}

	if err := s.SaveFeed(ctx, in); err != nil {
		t.Fatalf("saving feed: %v", err)
	}

	out, ok, err := s.LoadFeed(ctx)
	if err != nil {
		t.Fatalf("loading feed: %v", err)
	}
	if !ok {
		t.Fatal("ok = false after save, want true")
	}
	if len(out) != 2 {
		t.Fatalf("loaded %d entries, want 2", len(out))
	}
	if out[0].ID == nil || *out[0].ID != 42 {
		t.Errorf("first entry id = %v, want 42", out[0].ID)
	}
	if !out[0].Read || out[1].Read {
		t.Error("read flags not preserved")
	}
	if out[0].Params["orderId"] != "42" {
		t.Errorf("deep-link params not preserved: %v", out[0].Params)
	}
	if out[1].ID != nil {
		t.Errorf("second entry id = %v, want nil", out[1].ID)
	}
}

func TestSavedEmptyListIsDistinctFromAbsent(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestMirror(t)

	if err := s.SaveFeed(ctx, []model.Notification{}); err != nil {
		t.Fatalf("saving empty feed: %v", err)
	}

	list, ok, err := s.LoadFeed(ctx)
	if err != nil {
		t.Fatalf("loading feed: %v", err)
	}
	if !ok {
		t.Error("ok = false for explicitly saved empty feed, want true")
	}
	if len(list) != 0 {
		t.Errorf("list = %v, want empty", list)
	}
}

func TestDeleteFeedRemovesKey(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestMirror(t)

	if err := s.SaveFeed(ctx, []model.Notification{{Title: "x", Message: "y"}}); err != nil {
		t.Fatalf("saving feed: %v", err)
	}
	if err := s.DeleteFeed(ctx); err != nil {
		t.Fatalf("deleting feed: %v", err)
	}

	_, ok, err := s.LoadFeed(ctx)
	if err != nil {
		t.Fatalf("loading after delete: %v", err)
	}
	if ok {
		t.Error("ok = true after delete, want false")
	}

	// Deleting again is not an error.
	if err := s.DeleteFeed(ctx); err != nil {
		t.Errorf("second delete: %v", err)
	}
}
