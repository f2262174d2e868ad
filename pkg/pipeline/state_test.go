package pipeline

import (
	"testing"

	"github.com/flowcore/engine/pkg/flow"
)

func TestStateContainerMaterializeIsIdempotent(t *testing.T) {
	c := NewStateContainer()
	WithKey(c, "nums", flow.FromSlice([]int{1, 2, 3}))

	first, err := Materialize[int](c, "nums")
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("expected 3 items, got %d", len(first))
	}

	second, err := Materialize[int](c, "nums")
	if err != nil {
		t.Fatalf("second Materialize failed: %v", err)
	}
	if len(second) != 3 {
		t.Fatalf("expected cached snapshot to still have 3 items, got %d", len(second))
	}
	if !c.HasSnapshot("nums") {
		t.Error("expected HasSnapshot true after materialisation")
	}
}

func TestStateContainerWithCheckpointMaterialisesImmediately(t *testing.T) {
	c := NewStateContainer()
	out, err := WithCheckpoint(c, "nums", flow.FromSlice([]int{10, 20}))
	if err != nil {
		t.Fatalf("WithCheckpoint failed: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 items, got %d", len(out))
	}
	if !c.HasSnapshot("nums") {
		t.Error("expected a snapshot immediately after WithCheckpoint")
	}
}

func TestStateContainerUnknownKeyIsError(t *testing.T) {
	c := NewStateContainer()
	_, err := Materialize[int](c, "missing")
	if err == nil {
		t.Fatal("expected an error for an unknown key")
	}
}

func TestStreamReplaysSnapshot(t *testing.T) {
	c := NewStateContainer()
	WithKey(c, "nums", flow.FromSlice([]int{1, 2, 3}))
	if _, err := Materialize[int](c, "nums"); err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}

	seq, err := Stream[int](c, "nums")
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	got, err := flow.Collect(seq)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 items from replay, got %d", len(got))
	}
}

func TestReplayableAllowsMultipleIterations(t *testing.T) {
	pulls := 0
	source := func() (int, error) {
		pulls++
		if pulls > 3 {
			var zero int
			return zero, flow.EOS
		}
		return pulls, nil
	}
	r := NewReplayable[int](source)

	first, err := flow.Collect(r.Stream())
	if err != nil {
		t.Fatalf("first Collect failed: %v", err)
	}
	second, err := flow.Collect(r.Stream())
	if err != nil {
		t.Fatalf("second Collect failed: %v", err)
	}
	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("expected both iterations to see all 3 items, got %d and %d", len(first), len(second))
	}
	if pulls != 4 { // 3 items + the terminal EOS pull
		t.Errorf("expected the underlying source to be drained exactly once (4 pulls including EOS), got %d", pulls)
	}
}
