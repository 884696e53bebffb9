package redis

import (
	"context"
	"testing"

	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/lexidex/internal/store"
)

func TestGet_Found(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "k")).
		Return(mock.Result(mock.RedisString("v")))

	s := NewStoreForTest(c)
	status, v, err := s.Get(context.Background(), []byte("k"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != store.Found || string(v) != "v" {
		t.Fatalf("got status=%v value=%q", status, v)
	}
}

func TestGet_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "missing")).
		Return(mock.Result(mock.RedisNil()))

	s := NewStoreForTest(c)
	status, v, err := s.Get(context.Background(), []byte("missing"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != store.NotFound || v != nil {
		t.Fatalf("got status=%v value=%v", status, v)
	}
}

func TestInsert(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "k", "v")).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	if err := s.Insert(context.Background(), []byte("k"), []byte("v")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRemove(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("DEL", "k")).
		Return(mock.Result(mock.RedisInt64(1)))

	s := NewStoreForTest(c)
	if err := s.Remove(context.Background(), []byte("k")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestIncrement(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("INCRBY", "counter", "5")).
		Return(mock.Result(mock.RedisInt64(5)))

	s := NewStoreForTest(c)
	n, err := s.Increment(context.Background(), []byte("counter"), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 5 {
		t.Errorf("expected 5, got %d", n)
	}
}
