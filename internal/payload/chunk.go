package payload

// The gateway carries the encoded order payload in four opaque form fields
// (value_a..value_d), each capped at 255 characters. Split and Join must be
// exact inverses for any string of at most ChunkSize*ChunkCount characters.

const (
	ChunkSize  = 255
	ChunkCount = 4

	// MaxEncodedLen is the most the four fields can carry.
	MaxEncodedLen = ChunkSize * ChunkCount
)

// Split partitions s into exactly ChunkCount consecutive slices of at most
// ChunkSize characters each, padding trailing slots with empty strings.
// Anything beyond MaxEncodedLen does not fit; Encode guards that bound
// before Split is ever reached.
func Split(s string) [ChunkCount]string {
	var chunks [ChunkCount]string
	for i := 0; i < ChunkCount; i++ {
		if len(s) == 0 {
			break
		}
		n := ChunkSize
		if len(s) < n {
			n = len(s)
		}
		chunks[i] = s[:n]
		s = s[n:]
	}
	return chunks
}

// Join concatenates the four callback fields in fixed a+b+c+d order.
// Missing fields arrive as empty strings and concatenate harmlessly.
func Join(a, b, c, d string) string {
	return a + b + c + d
}
