package vnode

import "testing"

func TestParseSizeInt(t *testing.T) {
	v, err := ParseSize("width", 10)
	if err != nil || v.Kind != SizeInt || v.Int != 10 {
		t.Fatalf("got %+v err=%v", v, err)
	}
}

func TestParseSizeNegativeRejected(t *testing.T) {
	if _, err := ParseSize("width", -1); err == nil {
		t.Fatal("expected error for negative size")
	}
}

func TestParseSizeSpacingScale(t *testing.T) {
	v, err := ParseSize("p", "md")
	if err != nil || v.Kind != SizeInt || v.Int != 4 {
		t.Fatalf("got %+v err=%v", v, err)
	}
}

func TestParseSizePercent(t *testing.T) {
	v, err := ParseSize("width", "50%")
	if err != nil || v.Kind != SizePercent || v.Percent != 50 {
		t.Fatalf("got %+v err=%v", v, err)
	}
}

func TestParseSizeFull(t *testing.T) {
	v, err := ParseSize("width", "full")
	if err != nil || v.Kind != SizePercent || v.Percent != 100 {
		t.Fatalf("got %+v err=%v", v, err)
	}
}

func TestParseSizeAuto(t *testing.T) {
	v, err := ParseSize("width", "auto")
	if err != nil || v.Kind != SizeAuto {
		t.Fatalf("got %+v err=%v", v, err)
	}
}

func TestParseSizeExpression(t *testing.T) {
	v, err := ParseSize("width", "parent.w - 4")
	if err != nil || v.Kind != SizeExpr {
		t.Fatalf("got %+v err=%v", v, err)
	}
}

func TestParseSizeInvalidPercent(t *testing.T) {
	if _, err := ParseSize("width", "-5%"); err == nil {
		t.Fatal("expected error for malformed percentage")
	}
}
