/*
Package join resolves references between wide maps and the entities they point to.

A join-valued wide map stores the encoded primary key of the referenced entity
as its column value. On insert the Resolver either persists the entity
(cascade PERSIST or ALL) or checks that it already exists with a limit-1 slice
on the entity's column family under the read consistency policy. A missing
entity without cascade persist is reported as an UnresolvedJoinEntityError.

On read, values are handed out as Ref[E], which loads the entity on demand
through the configured Loader. Iterating a join map therefore costs one load
per element that is dereferenced.

On remove, entities of properties with cascade REMOVE or ALL are deleted on a
best-effort basis before the owning column.

Relationships records which join property each column family holds, for
handlers that see only storage keys, such as the DynamoDB stream handler.
*/
package join
