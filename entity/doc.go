// Package entity describes the persisted objects the association cache works
// with: the Entity contract, references, the static type ancestry table and the
// key codec that maps an entity onto its cache slot.
//
// # Cache keys
//
// Keys take the form "<TypeName>::<Identity>". For an entity loaded through a
// subtype the key is built from the base type registered directly beneath the
// ORM root, so a subtype instance and a base type instance with the same
// identity share one slot:
//
//	types := entity.NewTypes()
//	_ = types.Register("User", "")
//	_ = types.Register("Admin", "User")
//
//	codec := entity.NewCodec(types)
//	codec.KeyForType("Admin", 7) // "User::7"
//
// The ancestry table is populated at registration time. Nothing walks Go type
// information at lookup time besides resolving a registered model type to its
// name.
package entity
