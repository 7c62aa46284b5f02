package sentences

import "testing"

func TestInitAndRandom(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatal(err)
	}
	if Count() == 0 {
		t.Fatal("empty pool after init")
	}

	for i := 0; i < 50; i++ {
		s := Random()
		if len(s) < minLength {
			t.Fatalf("sentence too short: %q", s)
		}
		if !Contains(s) {
			t.Fatalf("random sentence not in pool: %q", s)
		}
	}
}

func TestInitIdempotent(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatal(err)
	}
	n := Count()
	if err := Init(); err != nil {
		t.Fatal(err)
	}
	if Count() != n {
		t.Fatalf("pool size changed across inits: %d vs %d", n, Count())
	}
}
