package postgres

import "testing"

func TestSortableClause(t *testing.T) {
	got := holdingSortable.clause("net", "desc", 10, 20)
	want := " ORDER BY (h.profit - h.loss) DESC LIMIT 10 OFFSET 20"
	if got != want {
		t.Errorf("clause = %q, want %q", got, want)
	}
}

func TestSortableClauseDefaultsUnknownField(t *testing.T) {
	got := shareSortable.clause("currentprice); DROP TABLE shares;--", "asc", 5, 0)
	want := " ORDER BY issuer_id ASC LIMIT 5 OFFSET 0"
	if got != want {
		t.Errorf("clause = %q, want %q", got, want)
	}
}

func TestSortableClauseDirection(t *testing.T) {
	got := userSortable.clause("balance", "banana", 1, 0)
	want := " ORDER BY balance ASC LIMIT 1 OFFSET 0"
	if got != want {
		t.Errorf("unknown order should fall back to ASC, got %q", got)
	}
}
