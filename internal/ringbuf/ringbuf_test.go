package ringbuf

import (
	"reflect"
	"testing"
)

func TestWindow_BasicPush(t *testing.T) {
	w := New[float64](4)

	w.Push(1)
	w.Push(2)

	if w.Len() != 2 {
		t.Fatalf("expected len=2, got %d", w.Len())
	}
	if w.Full() {
		t.Fatal("window should not be full")
	}
	if got := w.Values(); !reflect.DeepEqual(got, []float64{1, 2}) {
		t.Fatalf("expected [1 2], got %v", got)
	}
	last, ok := w.Last()
	if !ok || last != 2 {
		t.Fatalf("expected last=2, got %v ok=%v", last, ok)
	}
}

func TestWindow_EvictsOldest(t *testing.T) {
	w := New[int](3)

	for i := 1; i <= 3; i++ {
		if _, evicted := w.Push(i); evicted {
			t.Fatalf("push %d should not evict", i)
		}
	}

	old, evicted := w.Push(4)
	if !evicted || old != 1 {
		t.Fatalf("expected eviction of 1, got %d evicted=%v", old, evicted)
	}
	if got := w.Values(); !reflect.DeepEqual(got, []int{2, 3, 4}) {
		t.Fatalf("expected [2 3 4], got %v", got)
	}
	if w.Len() != w.Cap() {
		t.Fatalf("len=%d cap=%d", w.Len(), w.Cap())
	}
}

func TestWindow_Wraparound(t *testing.T) {
	w := New[int](26)
	for i := 0; i < 100; i++ {
		w.Push(i)
		if w.Len() > 26 {
			t.Fatalf("len exceeded capacity: %d", w.Len())
		}
	}
	vals := w.Values()
	if vals[0] != 74 || vals[len(vals)-1] != 99 {
		t.Fatalf("expected window 74..99, got %d..%d", vals[0], vals[len(vals)-1])
	}
	for i := 1; i < len(vals); i++ {
		if vals[i] != vals[i-1]+1 {
			t.Fatalf("order broken at %d: %v", i, vals)
		}
	}
}

func TestWindow_EmptyAndReset(t *testing.T) {
	w := New[int](2)
	if _, ok := w.Last(); ok {
		t.Fatal("last on empty window should be false")
	}
	w.Push(7)
	w.Reset()
	if w.Len() != 0 || len(w.Values()) != 0 {
		t.Fatal("reset should empty the window")
	}
}

func TestWindow_MinimumCapacity(t *testing.T) {
	w := New[int](0)
	if w.Cap() != 1 {
		t.Fatalf("expected cap=1, got %d", w.Cap())
	}
}

func TestWindow_Load(t *testing.T) {
	w := New[int](3)
	w.Load([]int{1, 2, 3, 4, 5})
	if got := w.Values(); !reflect.DeepEqual(got, []int{3, 4, 5}) {
		t.Fatalf("expected [3 4 5], got %v", got)
	}
}

func TestWindow_ValuesIsCopy(t *testing.T) {
	w := New[int](2)
	w.Push(1)
	vals := w.Values()
	vals[0] = 99
	if got := w.Values(); got[0] != 1 {
		t.Fatal("Values must not alias the internal buffer")
	}
}
