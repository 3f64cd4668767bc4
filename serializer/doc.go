/*
Package serializer provides order-preserving encodings for the components of
composite column names.

Each built-in Serializer encodes a single Go type so that comparing the encoded
bytes with bytes.Compare agrees with the natural ordering of the values:

	string, bytes   escaped bytes (0x00 -> 0x00 0xFF) ending with 0x00 0x01
	int64, int      sign-flipped big-endian 8 bytes
	int32           sign-flipped big-endian 4 bytes
	uint64          big-endian 8 bytes
	bool            one byte, false before true
	float64         IEEE-754 bits with sign handling
	uuid            16 raw bytes
	timeuuid        8-byte timestamp followed by 16 raw bytes
	time, datetime  sign-flipped Unix nanoseconds

Serializers accept values of their declared type or pointers to it; a nil
pointer is a null component.

Serializers are also registered by name so tooling can decode stored names:

	s, ok := serializer.Lookup("timeuuid")

Column values use a ValueCodec, either derived from a serializer with Value or
stored as JSON with JSON.
*/
package serializer
