// Package codec adapts the black-box codecs hpp needs behind pure functions:
//
//   - Compress / Decompress: zlib stream compression followed by standard
//     base64, the form a consuming page inflates at load time
//   - EncodeBinary / DecodeBinary: base64 for binary assets
//   - MarshalStructured: JSON text for arbitrary Go values, with a
//     caller-supplied Fallback for members encoding/json cannot represent
//   - Digest: SHA-256 content digests for the build ledger
package codec
