package insights

import "strings"

// Chunk is a contiguous slice of validated comments. Number is its 1-based position
// in the partition it came from.
type Chunk struct {
	Number   int      `json:"number"`
	Comments []string `json:"comments"`
}

// CleanComments drops blank and whitespace-only comments. Survivors keep their order
// and are not trimmed.
func CleanComments(in []string) []string {
	out := make([]string, 0, len(in))
	for _, c := range in {
		if strings.TrimSpace(c) == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Partition validates comments, keeps the first maxComments of them (0 means no
// cap) and splits the result into ordered chunks of chunkSize. Only the last chunk
// may be shorter.
func Partition(comments []string, chunkSize, maxComments int) ([]Chunk, error) {
	if chunkSize < 1 {
		return nil, &InvalidInputError{Reason: "chunk size must be >= 1"}
	}
	if maxComments < 0 {
		return nil, &InvalidInputError{Reason: "max comments must be >= 0"}
	}

	valid := CleanComments(comments)
	if len(valid) == 0 {
		return nil, &InvalidInputError{Reason: "no comments to analyze"}
	}
	if maxComments > 0 && len(valid) > maxComments {
		valid = valid[:maxComments]
	}

	windows := chunkWindows(valid, chunkSize)
	chunks := make([]Chunk, 0, len(windows))
	for i, w := range windows {
		chunks = append(chunks, Chunk{Number: i + 1, Comments: w})
	}
	return chunks, nil
}

func chunkWindows[T any](in []T, max int) [][]T {
	if max <= 0 || len(in) <= max {
		return [][]T{in}
	}
	out := make([][]T, 0, (len(in)+max-1)/max)
	for start := 0; start < len(in); start += max {
		end := start + max
		if end > len(in) {
			end = len(in)
		}
		out = append(out, in[start:end])
	}
	return out
}

// CountComments returns the number of comments across chunks.
func CountComments(chunks []Chunk) int {
	n := 0
	for _, c := range chunks {
		n += len(c.Comments)
	}
	return n
}
