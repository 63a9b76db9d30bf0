package domain

import "testing"

func TestParsePaymentMethod(t *testing.T) {
	m, ok := ParsePaymentMethod("  MonCash ")
	if !ok || m != PayMonCash {
		t.Fatalf("got %q %v", m, ok)
	}
	if _, ok := ParsePaymentMethod("cheque"); ok {
		t.Fatal("cheque accepted")
	}
}

func TestStringListScan(t *testing.T) {
	var l StringList
	if err := l.Scan(`["a.jpg","b.jpg"]`); err != nil {
		t.Fatal(err)
	}
	if len(l) != 2 || l[1] != "b.jpg" {
		t.Fatalf("got %v", l)
	}
	if err := l.Scan(nil); err != nil || len(l) != 0 {
		t.Fatalf("nil scan: %v %v", l, err)
	}
	v, err := StringList(nil).Value()
	if err != nil || v != "[]" {
		t.Fatalf("nil value: %v %v", v, err)
	}
}

func TestStockStatus(t *testing.T) {
	for stock, want := range map[int]string{0: OutOfStock, 4: LowStock, 5: InStock, 120: InStock} {
		if got := StockStatus(stock); got != want {
			t.Fatalf("StockStatus(%d) = %s, want %s", stock, got, want)
		}
	}
}
