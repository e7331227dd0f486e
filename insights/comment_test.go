package insights

import (
	"errors"
	"reflect"
	"strconv"
	"testing"
)

func TestPartition_Scenario(t *testing.T) {
	t.Parallel()

	got, err := Partition([]string{"Great product!", "Too expensive.", "Works fine."}, 2, 0)
	if err != nil {
		t.Fatalf("Partition: %v", err)
	}
	want := []Chunk{
		{Number: 1, Comments: []string{"Great product!", "Too expensive."}},
		{Number: 2, Comments: []string{"Works fine."}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got=%+v want=%+v", got, want)
	}
}

func TestPartition_CoversInputInOrder(t *testing.T) {
	t.Parallel()

	for n := 1; n <= 23; n++ {
		comments := make([]string, n)
		for i := range comments {
			comments[i] = "c" + strconv.Itoa(i)
		}
		for size := 1; size <= 7; size++ {
			chunks, err := Partition(comments, size, 0)
			if err != nil {
				t.Fatalf("n=%d size=%d: %v", n, size, err)
			}
			if want := (n + size - 1) / size; len(chunks) != want {
				t.Fatalf("n=%d size=%d chunks=%d want %d", n, size, len(chunks), want)
			}
			var joined []string
			for i, c := range chunks {
				if c.Number != i+1 {
					t.Fatalf("chunk number=%d want %d", c.Number, i+1)
				}
				if i < len(chunks)-1 && len(c.Comments) != size {
					t.Fatalf("n=%d size=%d chunk %d len=%d", n, size, i, len(c.Comments))
				}
				if len(c.Comments) == 0 || len(c.Comments) > size {
					t.Fatalf("n=%d size=%d chunk %d len=%d", n, size, i, len(c.Comments))
				}
				joined = append(joined, c.Comments...)
			}
			if !reflect.DeepEqual(joined, comments) {
				t.Fatalf("n=%d size=%d joined=%v", n, size, joined)
			}
		}
	}
}

func TestPartition_CapAndCleaning(t *testing.T) {
	t.Parallel()

	chunks, err := Partition([]string{"a1", "  ", "a2", "", "a3", "\t\n", "a4"}, 2, 3)
	if err != nil {
		t.Fatalf("Partition: %v", err)
	}
	want := []Chunk{
		{Number: 1, Comments: []string{"a1", "a2"}},
		{Number: 2, Comments: []string{"a3"}},
	}
	if !reflect.DeepEqual(chunks, want) {
		t.Fatalf("got=%+v want=%+v", chunks, want)
	}
}

func TestPartition_InvalidInput(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		comments []string
		size     int
		max      int
	}{
		{name: "nil", comments: nil, size: 10},
		{name: "only_blank", comments: []string{"", "  ", "\n"}, size: 10},
		{name: "zero_size", comments: []string{"ok"}, size: 0},
		{name: "negative_max", comments: []string{"ok"}, size: 10, max: -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Partition(tc.comments, tc.size, tc.max)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err=%v want ErrInvalidInput", err)
			}
			var ie *InvalidInputError
			if !errors.As(err, &ie) || ie.Reason == "" {
				t.Fatalf("err=%#v want *InvalidInputError with reason", err)
			}
		})
	}
}

func TestPartition_Deterministic(t *testing.T) {
	t.Parallel()

	in := []string{"a", "b", "c", "d", "e"}
	a, _ := Partition(in, 2, 0)
	b, _ := Partition(in, 2, 0)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("a=%v b=%v", a, b)
	}
}
