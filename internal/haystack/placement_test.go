package haystack

import (
	"errors"
	"strings"
	"testing"

	"github.com/Aisuko/rp-needle/internal/tokenizer"
)

const testNeedle = "The secret ingredient is basil. "

// testHaystack returns a 100-token haystack with sentence boundaries at
// multiples of ten.
func testHaystack(tok tokenizer.Tokenizer) Haystack {
	text := sentenceText(10)
	return Haystack{Text: text, Tokens: tok.Encode(text), Target: 100}
}

func TestPlanInsertions_Depths(t *testing.T) {
	t.Parallel()

	tok := tokenizer.NewWords()
	h := testHaystack(tok)

	tests := []struct {
		name  string
		depth float64
		want  int
	}{
		{name: "start", depth: 0, want: 0},
		{name: "on boundary", depth: 40, want: 40},
		{name: "snaps back", depth: 45, want: 40},
		{name: "snaps back fraction", depth: 57.5, want: 50},
		{name: "middle", depth: 50, want: 50},
		{name: "end without snapping", depth: 100, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			plan, err := PlanInsertions(tok, h, tt.depth, []string{testNeedle})
			if err != nil {
				t.Fatalf("PlanInsertions() error = %v", err)
			}
			if len(plan) != 1 {
				t.Fatalf("plan has %d insertions, want 1", len(plan))
			}
			if plan[0].Offset != tt.want {
				t.Errorf("offset at depth %v = %d, want %d", tt.depth, plan[0].Offset, tt.want)
			}
		})
	}
}

func TestPlanInsertions_InvalidInput(t *testing.T) {
	t.Parallel()

	tok := tokenizer.NewWords()
	h := testHaystack(tok)

	if _, err := PlanInsertions(tok, h, -1, []string{testNeedle}); !errors.Is(err, ErrInvalidDepth) {
		t.Errorf("depth -1 error = %v, want ErrInvalidDepth", err)
	}
	if _, err := PlanInsertions(tok, h, 100.5, []string{testNeedle}); !errors.Is(err, ErrInvalidDepth) {
		t.Errorf("depth 100.5 error = %v, want ErrInvalidDepth", err)
	}
	if _, err := PlanInsertions(tok, h, 50, nil); !errors.Is(err, ErrNoNeedle) {
		t.Errorf("no needles error = %v, want ErrNoNeedle", err)
	}
}

func TestPlanInsertions_MultiNeedle(t *testing.T) {
	t.Parallel()

	tok := tokenizer.NewWords()
	h := testHaystack(tok)

	// Three needles at depth 40: the remaining 60% splits into intervals of
	// 20, giving targets 40, 60, and 80.
	needles := []string{"First fact. ", "Second fact. ", "Third fact. "}
	plan, err := PlanInsertions(tok, h, 40, needles)
	if err != nil {
		t.Fatalf("PlanInsertions() error = %v", err)
	}

	wantOffsets := []int{40, 60, 80}
	for i, ins := range plan {
		if ins.Offset != wantOffsets[i] {
			t.Errorf("plan[%d].Offset = %d, want %d", i, ins.Offset, wantOffsets[i])
		}
		if ins.Needle != needles[i] {
			t.Errorf("plan[%d].Needle = %q, want order preserved", i, ins.Needle)
		}
	}
}

func TestPlanInsertions_StrictlyIncreasing(t *testing.T) {
	t.Parallel()

	tok := tokenizer.NewWords()
	h := testHaystack(tok)

	needles := make([]string, 5)
	for i := range needles {
		needles[i] = testNeedle
	}

	for _, depth := range []float64{0, 10, 25, 40} {
		plan, err := PlanInsertions(tok, h, depth, needles)
		if err != nil {
			t.Fatalf("PlanInsertions(depth %v) error = %v", depth, err)
		}
		for i := 1; i < len(plan); i++ {
			if plan[i].Offset <= plan[i-1].Offset {
				t.Errorf("depth %v: offsets %d and %d not strictly increasing (%d, %d)",
					depth, i-1, i, plan[i-1].Offset, plan[i].Offset)
			}
		}
	}
}

func TestPlanInsertions_BoundarySaturation(t *testing.T) {
	t.Parallel()

	tok := tokenizer.NewWords()
	h := testHaystack(tok)

	// More needles than sentence boundaries remain past depth 95. Offsets
	// may tie at the end of the haystack but must never decrease, and every
	// needle must still land in order.
	needles := make([]string, 10)
	for i := range needles {
		needles[i] = testNeedle
	}
	plan, err := PlanInsertions(tok, h, 95, needles)
	if err != nil {
		t.Fatalf("PlanInsertions() error = %v", err)
	}
	if len(plan) != len(needles) {
		t.Fatalf("plan has %d insertions, want %d", len(plan), len(needles))
	}
	for i := 1; i < len(plan); i++ {
		if plan[i].Offset < plan[i-1].Offset {
			t.Errorf("offsets decreased at %d: %d then %d", i, plan[i-1].Offset, plan[i].Offset)
		}
	}
	if last := plan[len(plan)-1].Offset; last > h.Len() {
		t.Errorf("last offset %d exceeds haystack length %d", last, h.Len())
	}

	out := Apply(tok, h, plan)
	if want := h.Len() + len(needles)*tok.Count(testNeedle); out.Len() != want {
		t.Errorf("Len() = %d, want %d", out.Len(), want)
	}
}

func TestPlanInsertions_CollisionPush(t *testing.T) {
	t.Parallel()

	tok := tokenizer.NewWords()
	h := testHaystack(tok)

	// Depth 95 with two needles: both raw targets snap into the last
	// sentence span, so the second is pushed to the next boundary.
	plan, err := PlanInsertions(tok, h, 95, []string{"one. ", "two. "})
	if err != nil {
		t.Fatalf("PlanInsertions() error = %v", err)
	}
	if plan[0].Offset != 90 || plan[1].Offset != 100 {
		t.Errorf("offsets = [%d, %d], want [90, 100]", plan[0].Offset, plan[1].Offset)
	}
}

func TestApply_SingleNeedle(t *testing.T) {
	t.Parallel()

	tok := tokenizer.NewWords()
	h := testHaystack(tok)

	plan, err := PlanInsertions(tok, h, 40, []string{testNeedle})
	if err != nil {
		t.Fatalf("PlanInsertions() error = %v", err)
	}
	out := Apply(tok, h, plan)

	needleLen := tok.Count(testNeedle)
	if out.Len() != h.Len()+needleLen {
		t.Errorf("Len() = %d, want %d", out.Len(), h.Len()+needleLen)
	}
	if !strings.Contains(out.Text, strings.TrimSpace(testNeedle)) {
		t.Error("rendered haystack does not contain the needle")
	}
	if got := tok.Decode(out.Tokens[40 : 40+needleLen]); got != testNeedle {
		t.Errorf("tokens at offset 40 decode to %q, want the needle", got)
	}
}

func TestApply_MultiNeedleShifts(t *testing.T) {
	t.Parallel()

	tok := tokenizer.NewWords()
	h := testHaystack(tok)

	needles := []string{"First fact. ", "Second fact. ", "Third fact. "}
	plan, err := PlanInsertions(tok, h, 40, needles)
	if err != nil {
		t.Fatalf("PlanInsertions() error = %v", err)
	}
	out := Apply(tok, h, plan)

	// Each needle's rendered position is its plan offset plus the token
	// length of every needle before it.
	shift := 0
	for i, ins := range plan {
		nLen := tok.Count(ins.Needle)
		start := ins.Offset + shift
		if got := tok.Decode(out.Tokens[start : start+nLen]); got != ins.Needle {
			t.Errorf("needle %d at rendered offset %d decodes to %q, want %q", i, start, got, ins.Needle)
		}
		shift += nLen
	}

	total := 0
	for _, n := range needles {
		total += tok.Count(n)
	}
	if out.Len() != h.Len()+total {
		t.Errorf("Len() = %d, want %d", out.Len(), h.Len()+total)
	}
}

func TestApply_DepthHundredAppends(t *testing.T) {
	t.Parallel()

	tok := tokenizer.NewWords()
	h := testHaystack(tok)

	plan, err := PlanInsertions(tok, h, 100, []string{testNeedle})
	if err != nil {
		t.Fatalf("PlanInsertions() error = %v", err)
	}
	out := Apply(tok, h, plan)

	if !strings.HasSuffix(out.Text, testNeedle) {
		t.Error("depth 100 needle is not at the end of the haystack")
	}
}
