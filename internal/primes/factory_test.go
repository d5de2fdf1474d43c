package primes

import (
	"context"
	"errors"
	"sync"
	"testing"

	apperrors "github.com/agbru/primecount/internal/errors"
)

type constCounter struct{ n uint64 }

func (c constCounter) Name() string { return "const" }
func (c constCounter) CountRange(context.Context, Range) (uint64, error) {
	return c.n, nil
}

func TestDefaultFactory_Get(t *testing.T) {
	t.Parallel()
	f := NewDefaultFactory()
	for _, name := range []string{"trial", "sqrt", "sieve"} {
		c, err := f.Get(name)
		if err != nil {
			t.Errorf("Get(%q) error: %v", name, err)
			continue
		}
		if c.Name() == "" {
			t.Errorf("Get(%q) returned a counter without a name", name)
		}
	}

	_, err := f.Get("quantum")
	if !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Errorf("Get(unknown) error = %v, want ErrInvalidArgument", err)
	}
}

func TestDefaultFactory_Register(t *testing.T) {
	t.Parallel()
	f := NewDefaultFactory()

	if err := f.Register("const", constCounter{n: 7}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if got := f.List(); len(got) != 4 || got[0] != "const" {
		t.Errorf("List() = %v, want const first of 4", got)
	}
	if _, ok := f.GetAll()["const"]; !ok {
		t.Error("GetAll should include the registered counter")
	}

	for _, name := range []string{"", "all"} {
		if err := f.Register(name, constCounter{}); err == nil {
			t.Errorf("Register(%q) should fail", name)
		}
	}
	if err := f.Register("nil", nil); err == nil {
		t.Error("Register(nil counter) should fail")
	}
}

func TestDefaultFactory_GetAllIsACopy(t *testing.T) {
	t.Parallel()
	f := NewDefaultFactory()
	all := f.GetAll()
	delete(all, "trial")
	if _, err := f.Get("trial"); err != nil {
		t.Error("mutating GetAll result should not affect the factory")
	}
}

func TestDefaultFactory_Concurrent(t *testing.T) {
	t.Parallel()
	f := NewDefaultFactory()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = f.Register("const", constCounter{n: 1})
		}()
		go func() {
			defer wg.Done()
			_ = f.List()
			_, _ = f.Get("sqrt")
		}()
	}
	wg.Wait()
}
