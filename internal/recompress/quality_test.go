package recompress

// Notes:
// - Monotonicity is checked exhaustively over DefaultTable: every tier and
//   every scale, plus sizes on both sides of each breakpoint.

import (
	"errors"
	"testing"
)

// ---------------------------------------------------------------------------
// TestDefaultTable - Ordering rules
// ---------------------------------------------------------------------------

func TestDefaultTable_Valid(t *testing.T) {
	t.Parallel()

	if err := DefaultTable.Validate(); err != nil {
		t.Fatalf("DefaultTable.Validate() = %v, want nil", err)
	}
	if len(DefaultTable) < 3 {
		t.Errorf("DefaultTable has %d tiers, want at least 3", len(DefaultTable))
	}
}

func TestDefaultTable_ScaleMonotonic(t *testing.T) {
	t.Parallel()

	for _, size := range probeSizes() {
		prev := 101
		for scale := MinScale; scale <= MaxScale; scale++ {
			q := DefaultTable.Lookup(size, scale)
			if q > prev {
				t.Errorf("size %d: quality rises from %d to %d at scale %d", size, prev, q, scale)
			}
			prev = q
		}
	}
}

func TestDefaultTable_SizeMonotonic(t *testing.T) {
	t.Parallel()

	sizes := probeSizes()
	for scale := MinScale; scale <= MaxScale; scale++ {
		prev := 101
		for _, size := range sizes {
			q := DefaultTable.Lookup(size, scale)
			if q > prev {
				t.Errorf("scale %d: quality rises from %d to %d at size %d", scale, prev, q, size)
			}
			prev = q
		}
	}
}

// probeSizes returns ascending sizes around every breakpoint.
func probeSizes() []int64 {
	sizes := []int64{0, 1}
	for _, tier := range DefaultTable {
		if tier.MaxBytes > 0 {
			sizes = append(sizes, tier.MaxBytes-1, tier.MaxBytes, tier.MaxBytes+1)
		}
	}
	return append(sizes, 10<<20, 1<<40)
}

// ---------------------------------------------------------------------------
// TestTable_Lookup
// ---------------------------------------------------------------------------

func TestTable_Lookup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		size  int64
		scale int
		want  int
	}{
		{name: "tiny image keeps full quality", size: 512, scale: 9, want: 100},
		{name: "breakpoint is inclusive", size: 5 << 10, scale: 1, want: 98},
		{name: "just above breakpoint", size: 5<<10 + 1, scale: 1, want: 95},
		{name: "50KB at default scale", size: 50 << 10, scale: 5, want: 76},
		{name: "huge image at max scale", size: 100 << 20, scale: 9, want: 25},
		{name: "scale below range clamps to 1", size: 30 << 10, scale: 0, want: 92},
		{name: "scale above range clamps to 9", size: 30 << 10, scale: 42, want: 55},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := DefaultTable.Lookup(tt.size, tt.scale); got != tt.want {
				t.Errorf("Lookup(%d, %d) = %d, want %d", tt.size, tt.scale, got, tt.want)
			}
		})
	}
}

func TestTable_LookupEmpty(t *testing.T) {
	t.Parallel()

	if got := (Table{}).Lookup(1<<20, 5); got != 100 {
		t.Errorf("empty table Lookup = %d, want 100", got)
	}
}

// ---------------------------------------------------------------------------
// TestTable_Validate - Rejections
// ---------------------------------------------------------------------------

func TestTable_Validate(t *testing.T) {
	t.Parallel()

	flat := func(q int) [9]int {
		var out [9]int
		for i := range out {
			out[i] = q
		}
		return out
	}

	tests := []struct {
		name    string
		table   Table
		wantErr bool
	}{
		{
			name:  "single unbounded tier",
			table: Table{{Quality: flat(80)}},
		},
		{
			name:    "empty",
			table:   Table{},
			wantErr: true,
		},
		{
			name:    "last tier bounded",
			table:   Table{{MaxBytes: 1024, Quality: flat(80)}},
			wantErr: true,
		},
		{
			name:    "middle tier unbounded",
			table:   Table{{Quality: flat(80)}, {Quality: flat(70)}},
			wantErr: true,
		},
		{
			name:    "breakpoints not ascending",
			table:   Table{{MaxBytes: 2048, Quality: flat(90)}, {MaxBytes: 1024, Quality: flat(80)}, {Quality: flat(70)}},
			wantErr: true,
		},
		{
			name:    "quality out of range",
			table:   Table{{Quality: flat(101)}},
			wantErr: true,
		},
		{
			name:    "quality zero",
			table:   Table{{Quality: flat(0)}},
			wantErr: true,
		},
		{
			name:    "quality rises with scale",
			table:   Table{{Quality: [9]int{50, 60, 50, 50, 50, 50, 50, 50, 50}}},
			wantErr: true,
		},
		{
			name:    "quality rises with size",
			table:   Table{{MaxBytes: 1024, Quality: flat(70)}, {Quality: flat(80)}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.table.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTable) {
					t.Errorf("Validate() = %v, want ErrInvalidTable", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}
