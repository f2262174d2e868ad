package flow

import (
	"errors"
	"testing"
)

func TestFromSliceCollect(t *testing.T) {
	t.Run("PreservesOrder", func(t *testing.T) {
		input := []int{1, 2, 3, 4, 5}
		seq := FromSlice(input)

		got, err := Collect(seq)
		if err != nil {
			t.Fatalf("Collect failed: %v", err)
		}
		if len(got) != len(input) {
			t.Fatalf("expected %d items, got %d", len(input), len(got))
		}
		for i, v := range got {
			if v != input[i] {
				t.Errorf("position %d: expected %d, got %d", i, input[i], v)
			}
		}
	})

	t.Run("EmptySlice", func(t *testing.T) {
		got, err := Collect(FromSlice([]int{}))
		if err != nil {
			t.Fatalf("Collect failed: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected no items, got %d", len(got))
		}
	})
}

func TestFromChannel(t *testing.T) {
	ch := make(chan int, 3)
	ch <- 1
	ch <- 2
	ch <- 3
	close(ch)

	got, err := Collect(FromChannel(ch))
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	expected := []int{1, 2, 3}
	for i, v := range got {
		if v != expected[i] {
			t.Errorf("position %d: expected %d, got %d", i, expected[i], v)
		}
	}
}

func TestRange(t *testing.T) {
	t.Run("Ascending", func(t *testing.T) {
		got, err := Collect(Range(0, 5, 1))
		if err != nil {
			t.Fatalf("Collect failed: %v", err)
		}
		expected := []int64{0, 1, 2, 3, 4}
		if len(got) != len(expected) {
			t.Fatalf("expected %d items, got %d", len(expected), len(got))
		}
		for i, v := range got {
			if v != expected[i] {
				t.Errorf("position %d: expected %d, got %d", i, expected[i], v)
			}
		}
	})

	t.Run("Descending", func(t *testing.T) {
		got, err := Collect(Range(5, 0, -1))
		if err != nil {
			t.Fatalf("Collect failed: %v", err)
		}
		expected := []int64{5, 4, 3, 2, 1}
		for i, v := range got {
			if v != expected[i] {
				t.Errorf("position %d: expected %d, got %d", i, expected[i], v)
			}
		}
	})

	t.Run("ZeroStepExhaustsImmediately", func(t *testing.T) {
		got, err := Collect(Range(0, 5, 0))
		if err != nil {
			t.Fatalf("Collect failed: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected no items, got %d", len(got))
		}
	})
}

func TestReduce(t *testing.T) {
	sum, err := Reduce(FromSlice([]int{1, 2, 3, 4}), 0, func(acc, v int) int { return acc + v })
	if err != nil {
		t.Fatalf("Reduce failed: %v", err)
	}
	if sum != 10 {
		t.Errorf("expected sum 10, got %d", sum)
	}
}

func TestForEach(t *testing.T) {
	t.Run("VisitsEveryItem", func(t *testing.T) {
		var seen []int
		err := ForEach(FromSlice([]int{1, 2, 3}), func(v int) error {
			seen = append(seen, v)
			return nil
		})
		if err != nil {
			t.Fatalf("ForEach failed: %v", err)
		}
		if len(seen) != 3 {
			t.Fatalf("expected 3 visits, got %d", len(seen))
		}
	})

	t.Run("PropagatesFnError", func(t *testing.T) {
		boom := errors.New("boom")
		err := ForEach(FromSlice([]int{1, 2, 3}), func(v int) error {
			if v == 2 {
				return boom
			}
			return nil
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom error, got %v", err)
		}
	})
}

func TestPipeAndChain(t *testing.T) {
	double := Map(func(v int, _ int) int { return v * 2 })
	positive := Where(func(v int, _ int) bool { return v > 0 })

	t.Run("Pipe", func(t *testing.T) {
		combined := Pipe(double, Map(func(v int, _ int) string { return "" }))
		_ = combined // type-check only: Pipe composes Operator[int,int] -> Operator[int,string]
	})

	t.Run("Chain", func(t *testing.T) {
		chained := Chain(double, positive)
		got, err := Collect(chained(FromSlice([]int{-2, -1, 0, 1, 2})))
		if err != nil {
			t.Fatalf("Collect failed: %v", err)
		}
		expected := []int{2, 4}
		if len(got) != len(expected) {
			t.Fatalf("expected %d items, got %d", len(expected), len(got))
		}
		for i, v := range got {
			if v != expected[i] {
				t.Errorf("position %d: expected %d, got %d", i, expected[i], v)
			}
		}
	})
}
