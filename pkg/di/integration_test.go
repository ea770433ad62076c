package di

import (
	"context"
	"errors"
	"reflect"
	"testing"

	repository "github.com/goliatone/go-repository-bun"

	"github.com/goliatone/go-association-cache/association"
	"github.com/goliatone/go-association-cache/cache"
	"github.com/goliatone/go-association-cache/entity"
	"github.com/goliatone/go-association-cache/pkg/testsupport"
	"github.com/goliatone/go-association-cache/repositorycache"
	"github.com/goliatone/go-association-cache/store/bunstore"
)

func newWiredContainer(t testing.TB) (*Container, *bunstore.Store) {
	t.Helper()

	types := entity.NewTypes()
	testsupport.RegisterTypes(types)

	db := testsupport.OpenSeeded(t)
	container, err := NewContainerWithDefaults(db, WithTypes(types), WithSwitch(cache.NewSwitch(true)))
	if err != nil {
		t.Fatalf("NewContainerWithDefaults() failed: %v", err)
	}

	reg := container.Associations()
	reg.MustRegister("Account", association.HasMany("users", association.Cached(), association.WithOrder("?TableAlias.id")))
	reg.MustRegister("User", association.BelongsTo("account", association.Cached()))
	reg.MustRegister("User", association.HasAndBelongsToMany("projects", association.Cached(), association.WithOrder("?TableAlias.id")))
	return container, db
}

func userNames(list []entity.Entity) []string {
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, e.(*testsupport.User).Name)
	}
	return out
}

// A new parent with two children: the first collection load misses both
// children, the second serves both from the cache in the same order.
func TestEndToEndCollectionFlow(t *testing.T) {
	container, db := newWiredContainer(t)
	ctx := context.Background()

	orchard := &testsupport.Account{ID: 10, Name: "orchard"}
	children := []testsupport.User{
		{ID: 10, Kind: "User", AccountID: 10, Name: "apple"},
		{ID: 11, Kind: "User", AccountID: 10, Name: "pear"},
	}
	if _, err := db.DB().NewInsert().Model(orchard).Exec(ctx); err != nil {
		t.Fatalf("insert account: %v", err)
	}
	if _, err := db.DB().NewInsert().Model(&children).Exec(ctx); err != nil {
		t.Fatalf("insert users: %v", err)
	}

	store := container.Store()
	reg := container.Associations()

	first, err := reg.Load(ctx, orchard, "users", association.Request{})
	if err != nil {
		t.Fatalf("first load failed: %v", err)
	}
	if store.Hits() != 0 || store.Misses() != 2 {
		t.Errorf("expected 0 hits / 2 misses, got %d / %d", store.Hits(), store.Misses())
	}
	if !reflect.DeepEqual(store.Keys(), []string{"User::10", "User::11"}) {
		t.Errorf("expected both children cached, got %v", store.Keys())
	}

	store.ResetCounters()

	second, err := reg.Load(ctx, orchard, "users", association.Request{})
	if err != nil {
		t.Fatalf("second load failed: %v", err)
	}
	if store.Hits() != 2 || store.Misses() != 0 {
		t.Errorf("expected 2 hits / 0 misses, got %d / %d", store.Hits(), store.Misses())
	}
	if !reflect.DeepEqual(userNames(first), userNames(second)) {
		t.Errorf("expected identical results, got %v then %v", userNames(first), userNames(second))
	}
	if !reflect.DeepEqual(userNames(second), []string{"apple", "pear"}) {
		t.Errorf("unexpected children: %v", userNames(second))
	}
}

func TestEndToEndCacheDisabled(t *testing.T) {
	container, _ := newWiredContainer(t)
	ctx := context.Background()
	container.Switch().Set(false)

	account := &testsupport.Account{ID: 1}
	for i := 0; i < 2; i++ {
		users, err := container.Associations().Load(ctx, account, "users", association.Request{})
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if len(users) != 2 {
			t.Errorf("expected 2 users, got %d", len(users))
		}
	}

	store := container.Store()
	if store.Hits() != 0 || store.Misses() != 0 || store.Len() != 0 {
		t.Errorf("expected untouched store, got %d hits / %d misses / %d entries", store.Hits(), store.Misses(), store.Len())
	}
}

func TestEndToEndRepositorySharesSlots(t *testing.T) {
	container, db := newWiredContainer(t)
	ctx := context.Background()

	users, err := container.Associations().Load(ctx, &testsupport.Account{ID: 1}, "users", association.Request{})
	if err != nil || len(users) != 2 {
		t.Fatalf("load failed: %v (%d users)", err, len(users))
	}

	base := &userRepository{}
	repo := NewCachedRepository[*testsupport.User](container, base, "User",
		repositorycache.WithInvalidationPolicy(repositorycache.InvalidateOnMutation))

	got, err := repo.GetByID(ctx, "2")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got != users[1] {
		t.Errorf("expected the collection's cached record, got %+v", got)
	}
	if base.getByID != 0 {
		t.Errorf("expected no base repository reads, got %d", base.getByID)
	}

	if _, err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !reflect.DeepEqual(container.Store().Keys(), []string{"User::1"}) {
		t.Errorf("expected updated record evicted, got %v", container.Store().Keys())
	}

	if err := repo.Delete(ctx, &testsupport.User{ID: 3, Kind: "Admin"}); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	var joinRows int
	joinRows, err = db.DB().NewSelect().Table("projects_users").Where("user_id = ?", 3).Count(ctx)
	if err != nil {
		t.Fatalf("count join rows: %v", err)
	}
	if joinRows != 0 {
		t.Errorf("expected join rows removed before delete, got %d", joinRows)
	}
}

// userRepository implements the reads and writes the decorator reaches in
// these tests; anything else panics through the nil embedded interface.
type userRepository struct {
	repository.Repository[*testsupport.User]
	getByID int
}

func (r *userRepository) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*testsupport.User, error) {
	r.getByID++
	return nil, errors.New("not expected")
}

func (r *userRepository) Update(ctx context.Context, record *testsupport.User, criteria ...repository.UpdateCriteria) (*testsupport.User, error) {
	return record, nil
}

func (r *userRepository) Delete(ctx context.Context, record *testsupport.User) error {
	return nil
}
