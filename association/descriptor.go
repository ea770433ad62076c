package association

import (
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-association-cache/entity"
	"github.com/goliatone/go-association-cache/store"
)

// Kind identifies the relationship shape of a Descriptor.
type Kind int

const (
	KindBelongsTo Kind = iota + 1
	KindHasMany
	KindHasAndBelongsToMany
)

// String returns the macro style name of the kind.
func (k Kind) String() string {
	switch k {
	case KindBelongsTo:
		return "belongs_to"
	case KindHasMany:
		return "has_many"
	case KindHasAndBelongsToMany:
		return "has_and_belongs_to_many"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Descriptor is the configuration of one association. Zero valued fields are
// filled with naming defaults at registration.
type Descriptor struct {
	Kind Kind
	// Name is the association name on the owner, e.g. "account" or "projects".
	Name string
	// OwnerType is set by the registry.
	OwnerType string
	// TargetType is the related type name. Default: Classify(Name).
	TargetType string
	// ForeignKey is the column on the owner (belongs-to), on the target
	// (has-many) or in the join table pointing at the owner (habtm).
	ForeignKey string
	// AssociationForeignKey is the join table column pointing at the target.
	AssociationForeignKey string
	JoinTable             string
	// Through names another has-many association on the owner whose targets
	// carry Source.
	Through string
	// Source is the association followed on each Through target.
	// Default: Name.
	Source string
	// FinderSQL replaces the generated query. Its only argument is the
	// owner's identity.
	FinderSQL  string
	Order      string
	Conditions []store.Condition
	Cached     bool
}

// DescriptorOption customizes a Descriptor.
type DescriptorOption func(*Descriptor)

// BelongsTo declares a single related entity referenced by a foreign key on
// the owner.
func BelongsTo(name string, opts ...DescriptorOption) Descriptor {
	return newDescriptor(KindBelongsTo, name, opts)
}

// HasMany declares a collection whose rows reference the owner.
func HasMany(name string, opts ...DescriptorOption) Descriptor {
	return newDescriptor(KindHasMany, name, opts)
}

// HasAndBelongsToMany declares a collection related through a join table.
func HasAndBelongsToMany(name string, opts ...DescriptorOption) Descriptor {
	return newDescriptor(KindHasAndBelongsToMany, name, opts)
}

func newDescriptor(kind Kind, name string, opts []DescriptorOption) Descriptor {
	d := Descriptor{Kind: kind, Name: name}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// Cached opts the association into the cache.
func Cached() DescriptorOption {
	return func(d *Descriptor) { d.Cached = true }
}

// WithClassName sets the target type when it differs from Classify(name).
func WithClassName(typeName string) DescriptorOption {
	return func(d *Descriptor) { d.TargetType = typeName }
}

// WithForeignKey overrides the foreign key column.
func WithForeignKey(column string) DescriptorOption {
	return func(d *Descriptor) { d.ForeignKey = column }
}

// WithAssociationForeignKey overrides the join table column pointing at the
// target.
func WithAssociationForeignKey(column string) DescriptorOption {
	return func(d *Descriptor) { d.AssociationForeignKey = column }
}

// WithJoinTable overrides the many-to-many join table.
func WithJoinTable(table string) DescriptorOption {
	return func(d *Descriptor) { d.JoinTable = table }
}

// WithThrough routes a has-many association through another one.
func WithThrough(association, source string) DescriptorOption {
	return func(d *Descriptor) {
		d.Through = association
		d.Source = source
	}
}

// WithFinderSQL loads the collection with a custom query. Such collections
// are never cached.
func WithFinderSQL(query string) DescriptorOption {
	return func(d *Descriptor) { d.FinderSQL = query }
}

// WithOrder sets the ORDER BY fragment applied after the caller's order.
func WithOrder(order string) DescriptorOption {
	return func(d *Descriptor) { d.Order = order }
}

// WithConditions adds predicates ANDed into every load.
func WithConditions(conditions ...store.Condition) DescriptorOption {
	return func(d *Descriptor) { d.Conditions = append(d.Conditions, conditions...) }
}

// withDefaults fills unset names the way the ORM conventions derive them.
func (d Descriptor) withDefaults(types *entity.Types) Descriptor {
	if d.TargetType == "" && d.Name != "" {
		d.TargetType = entity.Classify(d.Name)
	}

	switch d.Kind {
	case KindBelongsTo:
		if d.ForeignKey == "" && d.Name != "" {
			d.ForeignKey = entity.Underscore(d.Name) + "_id"
		}
	case KindHasMany:
		if d.ForeignKey == "" && d.OwnerType != "" {
			d.ForeignKey = entity.ForeignKey(d.OwnerType)
		}
		if d.Through != "" && d.Source == "" {
			d.Source = d.Name
		}
	case KindHasAndBelongsToMany:
		if d.ForeignKey == "" && d.OwnerType != "" {
			d.ForeignKey = entity.ForeignKey(d.OwnerType)
		}
		if d.AssociationForeignKey == "" && d.TargetType != "" {
			d.AssociationForeignKey = entity.ForeignKey(d.TargetType)
		}
		if d.JoinTable == "" && d.OwnerType != "" && d.TargetType != "" {
			if _, ok := types.Lookup(d.TargetType); ok {
				d.JoinTable = entity.JoinTable(types.TableOf(d.OwnerType), types.TableOf(d.TargetType))
			}
		}
	}
	return d
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// Validate checks a defaulted descriptor against the type registry.
func (d Descriptor) Validate(types *entity.Types) error {
	registered := validation.By(func(value any) error {
		name, _ := value.(string)
		if name == "" {
			return nil
		}
		if _, ok := types.Lookup(name); !ok {
			return fmt.Errorf("type %q is not registered", name)
		}
		return nil
	})

	habtm := d.Kind == KindHasAndBelongsToMany
	through := d.Through != ""

	return validation.ValidateStruct(&d,
		validation.Field(&d.Kind, validation.Required, validation.In(KindBelongsTo, KindHasMany, KindHasAndBelongsToMany)),
		validation.Field(&d.Name, validation.Required, validation.Match(identifier)),
		validation.Field(&d.OwnerType, validation.Required, registered),
		validation.Field(&d.TargetType, validation.When(!through, validation.Required, registered)),
		validation.Field(&d.ForeignKey, validation.When(!through, validation.Required, validation.Match(identifier))),
		validation.Field(&d.JoinTable,
			validation.When(habtm, validation.Required.Error("cannot be resolved"), validation.Match(identifier)),
			validation.When(!habtm, validation.Empty.Error("only applies to has_and_belongs_to_many")),
		),
		validation.Field(&d.AssociationForeignKey, validation.When(habtm, validation.Required, validation.Match(identifier))),
		validation.Field(&d.Through,
			validation.When(through && d.Kind != KindHasMany, validation.Empty.Error("only applies to has_many")),
			validation.When(through && d.FinderSQL != "", validation.Empty.Error("cannot be combined with finder_sql")),
		),
	)
}
