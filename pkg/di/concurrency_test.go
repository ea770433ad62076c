package di

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/goliatone/go-association-cache/association"
	"github.com/goliatone/go-association-cache/entity"
	"github.com/goliatone/go-association-cache/pkg/testsupport"
)

// TestConcurrentAssociationLoads runs association loads from many goroutines
// against one container and checks every result keeps its order.
func TestConcurrentAssociationLoads(t *testing.T) {
	container, _ := newWiredContainer(t)
	ctx := context.Background()

	owners := []entity.Entity{
		&testsupport.Account{ID: 1},
		&testsupport.Account{ID: 2},
	}
	want := map[int64][]string{
		1: {"carrot", "parsnip"},
		2: {"cow"},
	}

	const numGoroutines = 16
	const operationsPerGoroutine = 10

	var wg sync.WaitGroup
	errs := make(chan error, numGoroutines*operationsPerGoroutine)

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := 0; j < operationsPerGoroutine; j++ {
				owner := owners[(worker+j)%len(owners)]
				got, err := container.Associations().Load(ctx, owner, "users", association.Request{})
				if err != nil {
					errs <- err
					continue
				}
				if fmt.Sprint(userNames(got)) != fmt.Sprint(want[owner.EntityID()]) {
					errs <- fmt.Errorf("worker %d: account %d got %v", worker, owner.EntityID(), userNames(got))
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	if got := container.Store().Len(); got != 3 {
		t.Errorf("expected 3 cached users, got %d", got)
	}
}

func BenchmarkRetrieveWarm(b *testing.B) {
	container, _ := newWiredContainer(b)
	ctx := context.Background()
	batch := container.BatchLoader()
	ids := []int64{1, 2, 3, 4, 2, 1}

	if _, err := batch.Retrieve(ctx, "User", ids); err != nil {
		b.Fatalf("warmup failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := batch.Retrieve(ctx, "User", ids); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRetrieveCold(b *testing.B) {
	container, _ := newWiredContainer(b)
	ctx := context.Background()
	batch := container.BatchLoader()
	ids := []int64{1, 2, 3, 4, 2, 1}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := container.Store().Clear(ctx); err != nil {
			b.Fatal(err)
		}
		if _, err := batch.Retrieve(ctx, "User", ids); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDirectLoad(b *testing.B) {
	container, _ := newWiredContainer(b)
	ctx := context.Background()
	batch := container.BatchLoader()
	ids := []int64{1, 2, 3, 4, 2, 1}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := batch.LoadDirect(ctx, "User", ids); err != nil {
			b.Fatal(err)
		}
	}
}
