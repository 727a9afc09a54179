package cache

import (
	"context"
	"testing"
)

func TestKey(t *testing.T) {
	if got := Key("u1"); got != "likes:u1:ids" {
		t.Errorf("unexpected key %s", got)
	}
}

func TestIDCodec(t *testing.T) {
	t.Run("Empty List Is Cacheable", func(t *testing.T) {
		data, err := encodeIDs(nil)
		if err != nil || data != "[]" {
			t.Fatalf("encodeIDs(nil) = %q, %v", data, err)
		}
		ids, err := decodeIDs(data)
		if err != nil || ids == nil || len(ids) != 0 {
			t.Errorf("decodeIDs(%q) = %v, %v", data, ids, err)
		}
	})

	t.Run("Corrupt Value", func(t *testing.T) {
		if _, err := decodeIDs("{oops"); err == nil {
			t.Error("expected decode error")
		}
	})
}

func TestNilClient(t *testing.T) {
	c := NewLikeCache(nil, 0)
	if c.ttl != likedIDsTTL {
		t.Errorf("expected default ttl, got %s", c.ttl)
	}
	if _, _, err := c.Get(context.Background(), "u1"); err == nil {
		t.Error("expected error without a client")
	}
}
