package collection

import (
	"context"
	"testing"

	"github.com/kailas-cloud/lexidex/internal/domain/field"
	"github.com/kailas-cloud/lexidex/internal/domain/schema"
	"github.com/kailas-cloud/lexidex/internal/shard"
	"github.com/kailas-cloud/lexidex/internal/shard/memindex"
	"github.com/kailas-cloud/lexidex/internal/store/memstore"
)

func newTestManager() *Manager {
	return NewManager(memstore.New(), func(_ string, _ int, s schema.Schema) shard.Shard {
		return memindex.New(s)
	}, 4, DefaultConstants)
}

func TestManagerCreateOpenRoundTrip(t *testing.T) {
	m := newTestManager()
	title, _ := field.New("title", field.String, false)

	c, err := m.Create(context.Background(), "products", []field.Field{title}, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := c.Add(context.Background(), `{"title":"red shoes"}`); err != nil {
		t.Fatal(err)
	}

	reopened, err := m.Open(context.Background(), "products")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if reopened.GetCollectionID() != c.GetCollectionID() {
		t.Fatalf("collection id mismatch after reopen: %d vs %d", reopened.GetCollectionID(), c.GetCollectionID())
	}
	if len(reopened.GetSchema().Fields()) != 1 {
		t.Fatalf("expected 1 field after reopen, got %d", len(reopened.GetSchema().Fields()))
	}
}

func TestManagerCreateDuplicateRejected(t *testing.T) {
	m := newTestManager()
	title, _ := field.New("title", field.String, false)

	if _, err := m.Create(context.Background(), "products", []field.Field{title}, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Create(context.Background(), "products", []field.Field{title}, ""); err == nil {
		t.Fatal("expected duplicate create to be rejected")
	}
}

func TestManagerCollectionIDsMonotonic(t *testing.T) {
	m := newTestManager()
	title, _ := field.New("title", field.String, false)

	a, err := m.Create(context.Background(), "a", []field.Field{title}, "")
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.Create(context.Background(), "b", []field.Field{title}, "")
	if err != nil {
		t.Fatal(err)
	}
	if b.GetCollectionID() <= a.GetCollectionID() {
		t.Fatalf("expected monotonically increasing collection ids, got %d then %d", a.GetCollectionID(), b.GetCollectionID())
	}
}

func TestManagerDropThenOpenNotFound(t *testing.T) {
	m := newTestManager()
	title, _ := field.New("title", field.String, false)
	if _, err := m.Create(context.Background(), "products", []field.Field{title}, ""); err != nil {
		t.Fatal(err)
	}
	if err := m.Drop(context.Background(), "products"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Open(context.Background(), "products"); err == nil || StatusCode(err) != 404 {
		t.Fatalf("expected 404 after drop, got %v", err)
	}
}
