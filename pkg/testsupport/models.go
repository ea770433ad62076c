package testsupport

import (
	"github.com/uptrace/bun"

	"github.com/goliatone/go-association-cache/entity"
	"github.com/goliatone/go-association-cache/store"
	"github.com/goliatone/go-association-cache/store/bunstore"
)

// Account owns users.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:a" json:"-"`

	ID   int64  `bun:"id,pk" json:"id"`
	Name string `bun:"name" json:"name"`
}

func (a *Account) EntityID() int64 { return a.ID }

// User is stored with single table inheritance: Kind holds "User" or "Admin".
type User struct {
	bun.BaseModel `bun:"table:users,alias:u" json:"-"`

	ID        int64  `bun:"id,pk" json:"id"`
	Kind      string `bun:"kind" json:"kind"`
	AccountID int64  `bun:"account_id,nullzero" json:"account_id"`
	Name      string `bun:"name" json:"name"`
}

func (u *User) EntityID() int64 { return u.ID }

func (u *User) EntityType() string {
	if u.Kind == "" {
		return "User"
	}
	return u.Kind
}

// Project is related to users through the projects_users join table.
type Project struct {
	bun.BaseModel `bun:"table:projects,alias:p" json:"-"`

	ID   int64  `bun:"id,pk" json:"id"`
	Name string `bun:"name" json:"name"`
}

func (p *Project) EntityID() int64 { return p.ID }

// ProjectUser is a join row.
type ProjectUser struct {
	bun.BaseModel `bun:"table:projects_users" json:"-"`

	ProjectID int64 `bun:"project_id" json:"project_id"`
	UserID    int64 `bun:"user_id" json:"user_id"`
}

// RegisterTypes fills the ancestry table: Admin is a subtype of User.
func RegisterTypes(types *entity.Types) {
	types.MustRegister("Account", "", entity.WithModel(&Account{}))
	types.MustRegister("User", "", entity.WithModel(&User{}))
	types.MustRegister("Admin", "User", entity.WithTable("users"))
	types.MustRegister("Project", "", entity.WithModel(&Project{}))
}

// RegisterModels binds the test models to a bun store.
func RegisterModels(s *bunstore.Store) {
	bunstore.Register[Account](s, "Account")
	bunstore.Register[User](s, "User")
	bunstore.Register[User](s, "Admin", bunstore.WithScope(store.Where("?TableAlias.kind = ?", "Admin")))
	bunstore.Register[Project](s, "Project")
}
