package entity

import (
	"errors"
	"strconv"
)

// KeySeparator defines the delimiter between the type name and identity.
const KeySeparator = "::"

// ErrMalformedKey is returned when a cache key cannot be parsed into a Ref.
var ErrMalformedKey = errors.New("entity: malformed cache key")

// Codec derives stable cache keys for entities.
type Codec struct {
	types *Types
}

// NewCodec creates a codec that resolves base types through the given
// registry. A nil registry behaves as an empty one: every type is its own base.
func NewCodec(types *Types) *Codec {
	if types == nil {
		types = NewTypes()
	}
	return &Codec{types: types}
}

// Types returns the ancestry table backing the codec.
func (c *Codec) Types() *Types {
	return c.types
}

// KeyFor formats a key from the type name exactly as given.
func (c *Codec) KeyFor(typeName string, id int64) string {
	return typeName + KeySeparator + strconv.FormatInt(id, 10)
}

// KeyForType formats a key after resolving typeName to its base type.
func (c *Codec) KeyForType(typeName string, id int64) string {
	return c.KeyFor(c.types.BaseTypeOf(typeName), id)
}

// KeyOf returns the cache key for an entity instance.
func (c *Codec) KeyOf(e Entity) string {
	return c.RefOf(e).String()
}

// RefOf returns the base type reference for an entity instance.
func (c *Codec) RefOf(e Entity) Ref {
	return Ref{Type: c.BaseTypeOf(e), ID: e.EntityID()}
}

// BaseTypeOf resolves the instance's type and walks it up to the type
// registered directly beneath the ORM root.
func (c *Codec) BaseTypeOf(e Entity) string {
	return c.types.BaseTypeOf(c.types.TypeNameOf(e))
}
