package triggerlist

import (
	"bytes"
	"errors"
	"testing"
)

func TestBytesBin(t *testing.T) {
	b := Bytes{1, 2, 3}
	got, err := b.Bin()
	if err != nil {
		t.Fatalf("Bytes.Bin() error: %v", err)
	}
	if !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Errorf("Bytes.Bin() = %v, want [1 2 3]", got)
	}
}

func TestTupleBin(t *testing.T) {
	tup := Tuple{Mask: 0x01, Value: []byte{0xaa}}
	got, _ := tup.Bin()
	if !bytes.Equal(got, []byte{0xaa}) {
		t.Errorf("Tuple.Bin() = %v, want [0xaa]", got)
	}
}

func TestListLazyDissectRunsOnce(t *testing.T) {
	calls := 0
	l := NewFromBytes([]byte{1, 2}, func(raw []byte) ([]Element, error) {
		calls++
		return []Element{Bytes(raw[:1]), Bytes(raw[1:])}, nil
	}, nil)

	if n := l.Len(); n != 2 {
		t.Fatalf("Len() = %d, want 2", n)
	}
	if _, err := l.Elements(); err != nil {
		t.Fatalf("Elements() error: %v", err)
	}
	if calls != 1 {
		t.Errorf("dissect callback ran %d times, want 1", calls)
	}
}

func TestListBinConcatenatesElements(t *testing.T) {
	l := New(nil)
	_ = l.Append(Bytes{1, 2})
	_ = l.Append(Bytes{3})
	got, err := l.Bin()
	if err != nil {
		t.Fatalf("Bin() error: %v", err)
	}
	if !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Errorf("Bin() = %v, want [1 2 3]", got)
	}
}

func TestListAppendNotifiesAndInvalidatesCache(t *testing.T) {
	notified := 0
	l := New(func() { notified++ })
	_ = l.Append(Bytes{1})
	if _, err := l.Bin(); err != nil {
		t.Fatalf("Bin() error: %v", err)
	}
	if notified != 1 {
		t.Fatalf("notify called %d times after Append, want 1", notified)
	}
	_ = l.Append(Bytes{2})
	if notified != 2 {
		t.Fatalf("notify called %d times after second Append, want 2", notified)
	}
	got, _ := l.Bin()
	if !bytes.Equal(got, []byte{1, 2}) {
		t.Errorf("Bin() after mutation = %v, want [1 2] (stale cache not cleared)", got)
	}
}

func TestListSetSubscribesToListenableElement(t *testing.T) {
	var unsubscribed bool
	sub := &fakeListenable{
		add: func(cb func()) func() {
			return func() { unsubscribed = true }
		},
	}
	l := New(nil)
	_ = l.Append(sub)
	_ = l.Set(0, Bytes{9})
	if !unsubscribed {
		t.Error("Set() did not unsubscribe the replaced Listenable element")
	}
}

func TestListDeleteAndIndexRange(t *testing.T) {
	l := New(nil)
	_ = l.Append(Bytes{1})
	_ = l.Append(Bytes{2})
	if err := l.Delete(0); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if n := l.Len(); n != 1 {
		t.Fatalf("Len() after Delete = %d, want 1", n)
	}
	if err := l.Delete(5); !errors.Is(err, ErrIndexRange) {
		t.Errorf("Delete(out of range) error = %v, want ErrIndexRange", err)
	}
}

func TestListFindPosAndFindValue(t *testing.T) {
	l := New(nil)
	_ = l.Append(Bytes{1})
	_ = l.Append(Bytes{2})
	_ = l.Append(Bytes{3})

	pos, ok := l.FindPos(0, func(e Element) bool {
		b, isBytes := e.(Bytes)
		return isBytes && len(b) == 1 && b[0] == 2
	})
	if !ok || pos != 1 {
		t.Fatalf("FindPos() = (%d, %v), want (1, true)", pos, ok)
	}

	val, ok := l.FindValue(func(e Element) bool {
		b, isBytes := e.(Bytes)
		return isBytes && b[0] == 3
	})
	if !ok {
		t.Fatal("FindValue() found nothing, want element {3}")
	}
	if b, isBytes := val.(Bytes); !isBytes || b[0] != 3 {
		t.Errorf("FindValue() = %v, want Bytes{3}", val)
	}
}

func TestListFindPosRecoversPanickingPredicate(t *testing.T) {
	l := New(nil)
	_ = l.Append(Bytes{1})
	_ = l.Append(Bytes{2})
	_ = l.Append(Bytes{3})

	pos, ok := l.FindPos(0, func(e Element) bool {
		b := e.(Bytes)
		if b[0] == 2 {
			panic("boom")
		}
		return b[0] == 3
	})
	if !ok || pos != 2 {
		t.Fatalf("FindPos() with a panicking predicate = (%d, %v), want (2, true)", pos, ok)
	}
}

type fakeListenable struct {
	add func(func()) func()
}

func (f *fakeListenable) Bin() ([]byte, error)                { return nil, nil }
func (f *fakeListenable) AddChangeListener(cb func()) func() { return f.add(cb) }
