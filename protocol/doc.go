package protocol

// This package implements the framing and payload primitives of the binary
// protocol spoken by the pool gateway.
//
// - `Message` - One framed unit. Requests, responses and pushes share the layout.
// - `Code` - The kind of a message. A response carries the request code + 1.
// - `Reader` - A cursor used by every payload decoder.
// - `Writer` - The matching encoder.
//
// === Framing
//
// Every message, in both directions, starts with an eight byte header
//
//   ```
//     <id:u16le><code:u16le><length:u32le><payload: length bytes>
//   ```
//
// The id correlates a response with its request. Clients allocate ids from
// 0..32766, the gateway uses the upper half for its own pushes (or 0).
//
// Before the first framed message the client writes the priming token
// `CONNECTSERVERHOST\r\n\r\n`.
//
// === Payload fields
//
// - Integers are little-endian, except for the chemistry family which sends most
//   multi-byte fields big-endian. The byte order is chosen per field.
// - Strings are a u32 length followed by the content padded to a multiple of four.
//   When bit 31 of the length is set the content is UTF-16LE and the length counts
//   characters.
// - Byte arrays are a u32 count followed by the bytes padded to a multiple of four.
// - Timestamps are eight u16le fields: year, month, weekday, day, hour, minute,
//   seconds (always 0) and milliseconds.
//
// === Error responses
//
// Three codes replace a response when the gateway refuses a request
//
// - `13` login rejected, never retried
// - `30` invalid request
// - `31` bad parameter
//
