package extract

// BlockKind selects which delimiter pair FindBlock scans for.
type BlockKind int

const (
	BlockArray BlockKind = iota
	BlockObject
)

func (k BlockKind) delims() (open, close byte) {
	if k == BlockObject {
		return '{', '}'
	}
	return '[', ']'
}

func (k BlockKind) String() string {
	if k == BlockObject {
		return "object"
	}
	return "array"
}

// FindBlock returns the first balanced block of the given kind in s.
//
// Scanning starts at the first opening delimiter and ends where the depth
// returns to zero. Delimiters inside JSON string literals are ignored, so
// prose such as `"a ] b"` inside the block does not end it early. A block
// whose opener is never balanced is reported as ErrNoBlockFound rather than
// returned truncated.
func FindBlock(s string, kind BlockKind) (string, error) {
	open, closing := kind.delims()

	start := -1
	for i := 0; i < len(s); i++ {
		if s[i] == open {
			start = i
			break
		}
	}
	if start < 0 {
		return "", noBlock("no opening " + kind.String() + " delimiter")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}
		if inString {
			switch c {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}

	return "", noBlock("unterminated " + kind.String())
}
