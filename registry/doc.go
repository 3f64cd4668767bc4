/*
Package registry manages entity metadata for join resolution.

Entities referenced from wide maps live in their own column family, one row per
entity keyed by the encoded primary key. The registry records, per entity type:

  - the type name used in errors and join columns
  - the column family holding the entities
  - the serializer that encodes the id into a row key
  - an accessor that extracts the id from an entity value

Entities are looked up by name or by Go type:

	registry.Register[User](registry.EntityMeta{
	    Type:         "User",
	    ColumnFamily: "users",
	    IDSerializer: serializer.UUID,
	    IDOf: func(e any) (any, error) {
	        return e.(*User).ID, nil
	    },
	})

	meta, err := registry.GetType("User")
	meta, ok := registry.MetaFor[User]()

The registry is thread-safe and should be populated during initialization,
typically in init() functions.
*/
package registry
