package storage

import (
	"os"
	"testing"

	"github.com/rs/zerolog"

	"github.com/hailam/negachess/internal/board"
)

func openTemp(t *testing.T, dir string) *PerftStore {
	t.Helper()
	s, err := Open(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func TestPerftStore(t *testing.T) {
	s := openTemp(t, "")
	defer s.Close()

	if _, ok, err := s.Get(42, 3); err != nil || ok {
		t.Fatalf("Get on empty store = %v, %v", ok, err)
	}

	if err := s.Put(42, 3, 8902); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(42, 4, 197281); err != nil {
		t.Fatalf("Put: %v", err)
	}

	t.Run("depth is part of the key", func(t *testing.T) {
		for depth, want := range map[int]uint64{3: 8902, 4: 197281} {
			got, ok, err := s.Get(42, depth)
			if err != nil || !ok || got != want {
				t.Errorf("Get(42, %d) = %d, %v, %v; want %d", depth, got, ok, err, want)
			}
		}
	})

	t.Run("stats", func(t *testing.T) {
		st := s.Stats()
		if st.Hits != 2 || st.Misses != 1 {
			t.Errorf("stats = %+v, want 2 hits 1 miss", st)
		}
	})

	t.Run("len", func(t *testing.T) {
		n, err := s.Len()
		if err != nil || n != 2 {
			t.Errorf("Len = %d, %v; want 2", n, err)
		}
	})
}

func TestPerftStorePersists(t *testing.T) {
	dir := t.TempDir()

	s := openTemp(t, dir)
	if err := s.Put(7, 5, 4865609); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s = openTemp(t, dir)
	defer s.Close()
	got, ok, err := s.Get(7, 5)
	if err != nil || !ok || got != 4865609 {
		t.Errorf("after reopen Get = %d, %v, %v", got, ok, err)
	}
}

func TestPerftStoreBacksPerft(t *testing.T) {
	tables, err := board.NewTables(board.DefaultSeed)
	if err != nil {
		t.Fatalf("NewTables: %v", err)
	}
	pos, err := board.ParseFEN(tables, board.StartFEN)
	if err != nil {
		t.Fatal(err)
	}

	s := openTemp(t, "")
	defer s.Close()

	for pass := range 2 {
		nodes, err := pos.PerftCached(4, s)
		if err != nil {
			t.Fatalf("pass %d: %v", pass, err)
		}
		if nodes != 197281 {
			t.Errorf("pass %d: perft(4) = %d, want 197281", pass, nodes)
		}
	}
	if s.Stats().Hits == 0 {
		t.Error("second pass never hit the cache")
	}
}

func TestDataDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("APPDATA", t.TempDir())

	dir, err := PerftDir()
	if err != nil {
		t.Fatalf("PerftDir: %v", err)
	}
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		t.Errorf("perft dir %s was not created", dir)
	}
}
