package console

import (
	"testing"
	"unsafe"
)

func newTestConsole() (*Vga, []uint16) {
	fb := make([]uint16, 80*25)
	cons := &Vga{}
	cons.Init(80, 25, uintptr(unsafe.Pointer(&fb[0])))
	return cons, fb
}

func TestVgaInit(t *testing.T) {
	cons, _ := newTestConsole()

	if w, h := cons.Dimensions(); w != 80 || h != 25 {
		t.Fatalf("expected console dimensions to be 80x25; got %dx%d", w, h)
	}
}

func TestVgaWrite(t *testing.T) {
	cons, fb := newTestConsole()

	attr := MakeAttr(White, Red)
	cons.Write('!', attr, 10, 2)

	if exp, got := uint16(attr)<<8|uint16('!'), fb[2*80+10]; got != exp {
		t.Fatalf("expected cell value %x; got %x", exp, got)
	}

	// Out of bounds writes must be ignored.
	cons.Write('!', attr, 80, 0)
	cons.Write('!', attr, 0, 25)
	for i, cell := range fb {
		if i != 2*80+10 && cell != 0 {
			t.Fatalf("unexpected write to cell %d: %x", i, cell)
		}
	}
}

func TestVgaClear(t *testing.T) {
	specs := []struct {
		x, y, w, h uint16
	}{
		{0, 0, 500, 50}, // clipped to 80x25
		{10, 10, 11, 50},
		{10, 10, 80, 11},
		{99, 99, 1, 1},
	}

	clearVal := uint16(clearColor)<<4 | uint16(clearColor) | uint16(clearChar)

	for specIndex, spec := range specs {
		cons, fb := newTestConsole()

		attr := MakeAttr(LightGrey, Black)
		for y := uint16(0); y < 25; y++ {
			for x := uint16(0); x < 80; x++ {
				cons.Write('x', attr, x, y)
			}
		}

		cons.Clear(spec.x, spec.y, spec.w, spec.h)

		// The clipped clear rectangle.
		x1, y1 := spec.x, spec.y
		if x1 > 80 {
			x1 = 80
		}
		if y1 > 25 {
			y1 = 25
		}
		w, h := spec.w, spec.h
		if x1+w > 80 {
			w = 80 - x1
		}
		if y1+h > 25 {
			h = 25 - y1
		}

		for y := uint16(0); y < 25; y++ {
			for x := uint16(0); x < 80; x++ {
				inside := x >= x1 && x < x1+w && y >= y1 && y < y1+h
				got := fb[y*80+x]
				if inside && got != clearVal {
					t.Errorf("[spec %d] expected cell (%d,%d) to be cleared", specIndex, x, y)
				}
				if !inside && got == clearVal {
					t.Errorf("[spec %d] expected cell (%d,%d) to be left alone", specIndex, x, y)
				}
			}
		}
	}
}

func TestVgaScroll(t *testing.T) {
	cons, fb := newTestConsole()

	attr := MakeAttr(LightGrey, Black)

	// Tag each row with a distinct character.
	for y := uint16(0); y < 25; y++ {
		for x := uint16(0); x < 80; x++ {
			cons.Write(byte('A'+y), attr, x, y)
		}
	}

	t.Run("up", func(t *testing.T) {
		cons.Scroll(Up, 1)

		if exp, got := uint16(attr)<<8|uint16('B'), fb[0]; got != exp {
			t.Fatalf("expected row 0 to hold row 1 contents after scrolling up; got %x", got)
		}
	})

	t.Run("down", func(t *testing.T) {
		cons.Scroll(Down, 1)

		if exp, got := uint16(attr)<<8|uint16('B'), fb[1*80]; got != exp {
			t.Fatalf("expected row 1 to hold its pre-scroll row 0 contents after scrolling down; got %x", got)
		}
	})

	t.Run("ignored", func(t *testing.T) {
		before := fb[0]
		cons.Scroll(Up, 0)
		cons.Scroll(Up, 26)
		if fb[0] != before {
			t.Fatal("expected out-of-range scroll requests to be ignored")
		}
	})
}
