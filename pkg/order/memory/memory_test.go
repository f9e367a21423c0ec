package memory

import (
	"context"
	"testing"

	"autobesa/pkg/cart"
	"autobesa/pkg/order"
)

func TestRepository(t *testing.T) {
	ctx := context.Background()
	repo := New()
	o := order.Order{ID: "order-1", Items: []cart.Item{{ID: "car-1", Model: "Widget", Price: 100, Quantity: 2}}}
	if err := repo.Create(ctx, o); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := repo.Get(ctx, "order-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Items[0].Model != "Widget" {
		t.Fatalf("expected Widget, got %s", got.Items[0].Model)
	}
	if err := repo.Create(ctx, o); err != order.ErrExists {
		t.Fatalf("expected ErrExists on second create, got %v", err)
	}
	if err := repo.Create(ctx, order.Order{ID: "order-0"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	list, err := repo.List(ctx)
	if err != nil || len(list) != 2 {
		t.Fatalf("list: %v len=%d", err, len(list))
	}
	if list[0].ID != "order-1" || list[1].ID != "order-0" {
		t.Fatalf("list not in creation order: %s, %s", list[0].ID, list[1].ID)
	}
	if _, err := repo.Get(ctx, "missing"); err != order.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProfilesKeepHistoriesApart(t *testing.T) {
	ctx := context.Background()
	p := NewProfiles()

	if err := p.ForProfile("ana").Create(ctx, order.Order{ID: "order-1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	list, err := p.ForProfile("bob").List(ctx)
	if err != nil || len(list) != 0 {
		t.Fatalf("bob sees %d orders, err=%v", len(list), err)
	}
	if _, err := p.ForProfile("bob").Get(ctx, "order-1"); err != order.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(p.repos) != 1 {
		t.Fatalf("reads allocated histories: %d", len(p.repos))
	}
	list, err = p.ForProfile("ana").List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("ana list: %v len=%d", err, len(list))
	}
}
