package source

import (
	"sync"
	"testing"
)

func TestInternerBasic(t *testing.T) {
	in := NewInterner()

	// NoStringID зарезервирован под пустую строку
	if s, ok := in.Lookup(NoStringID); !ok || s != "" {
		t.Fatalf("NoStringID must map to empty string, got %q ok=%v", s, ok)
	}
	a := in.Intern("arr")
	b := in.Intern("arr")
	if a != b {
		t.Fatalf("expected same id for same string, got %d and %d", a, b)
	}
	if c := in.Intern("slice"); c == a {
		t.Fatalf("different strings must get different ids")
	}
	if in.Len() != 3 {
		t.Fatalf("expected 3 strings, got %d", in.Len())
	}
	if got := in.MustLookup(a); got != "arr" {
		t.Fatalf("lookup returned %q", got)
	}
}

func TestInternIdentNormalizes(t *testing.T) {
	in := NewInterner()
	composed := in.InternIdent("caf\u00e9")
	decomposed := in.InternIdent("cafe\u0301")
	if composed != decomposed {
		t.Fatalf("NFC-equivalent identifiers must intern to one id: %d vs %d", composed, decomposed)
	}
	// plain Intern keeps bytes verbatim
	if raw := in.Intern("cafe\u0301"); raw == composed {
		t.Fatalf("Intern must not normalize")
	}
}

func TestInternerSnapshotRoundTrip(t *testing.T) {
	in := NewInterner()
	ids := []StringID{in.Intern("a"), in.Intern("b"), in.Intern("c")}
	restored := NewInternerFrom(in.Snapshot())
	for _, id := range ids {
		if in.MustLookup(id) != restored.MustLookup(id) {
			t.Fatalf("id %d changed after restore", id)
		}
	}
	if restored.Intern("b") != ids[1] {
		t.Fatalf("restored interner must keep the index")
	}
}

func TestInternerConcurrent(t *testing.T) {
	in := NewInterner()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				in.Intern("shared")
			}
		}()
	}
	wg.Wait()
	if in.Len() != 2 {
		t.Fatalf("expected a single interned string, got %d entries", in.Len())
	}
}
