package speech

import (
	"testing"
)

func TestFingerprintDeterministic(t *testing.T) {
	req := Request{Text: "hello", Voice: "alloy", Rate: 1.0, Pitch: 1.0}
	if Fingerprint(req) != Fingerprint(req) {
		t.Error("identical requests must fingerprint identically")
	}
}

func TestFingerprintSensitiveToEveryField(t *testing.T) {
	base := Request{Text: "hello", Voice: "alloy", Rate: 1.0, Pitch: 1.0}
	variants := []Request{
		{Text: "goodbye", Voice: "alloy", Rate: 1.0, Pitch: 1.0},
		{Text: "hello", Voice: "nova", Rate: 1.0, Pitch: 1.0},
		{Text: "hello", Voice: "alloy", Rate: 1.25, Pitch: 1.0},
		{Text: "hello", Voice: "alloy", Rate: 1.0, Pitch: 0.8},
	}
	for _, v := range variants {
		if Fingerprint(v) == Fingerprint(base) {
			t.Errorf("request %+v should not collide with base", v)
		}
	}
}

func TestCacheStoreAndLookup(t *testing.T) {
	cache := NewCache(t.TempDir())
	fp := Fingerprint(Request{Text: "hi", Voice: "alloy", Rate: 1, Pitch: 1})

	if _, ok := cache.Lookup(fp); ok {
		t.Fatal("lookup should miss before store")
	}

	path, err := cache.Store(fp, []byte("fake-audio"))
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	got, ok := cache.Lookup(fp)
	if !ok {
		t.Fatal("lookup should hit after store")
	}
	if got != path {
		t.Errorf("lookup path %q != store path %q", got, path)
	}
}

func TestCacheClear(t *testing.T) {
	cache := NewCache(t.TempDir())
	fp1 := Fingerprint(Request{Text: "one", Voice: "alloy", Rate: 1, Pitch: 1})
	fp2 := Fingerprint(Request{Text: "two", Voice: "alloy", Rate: 1, Pitch: 1})

	for _, fp := range []string{fp1, fp2} {
		if _, err := cache.Store(fp, []byte("x")); err != nil {
			t.Fatalf("Store: %v", err)
		}
	}

	if err := cache.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok := cache.Lookup(fp1); ok {
		t.Error("expected miss after clear")
	}
	if _, ok := cache.Lookup(fp2); ok {
		t.Error("expected miss after clear")
	}
}
