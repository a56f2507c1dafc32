package stage

import (
	"testing"

	"bookforge-api/internal/domain/entity"
)

func TestExtractJSONValueStripsNoise(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"clean object", `{"a":1}`, `{"a":1}`},
		{"fenced object", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"prose prefix", "Here is the result:\n[{\"a\":1}]", `[{"a":1}]`},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractJSONValue(tc.in); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestTruncateByRunes(t *testing.T) {
	if got := TruncateByRunes("héllo", 3); got != "hél" {
		t.Errorf("got %q, want %q", got, "hél")
	}
	if got := TruncateByRunes("short", 100); got != "short" {
		t.Errorf("got %q, want %q", got, "short")
	}
	if got := TruncateByRunes("x", 0); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestParseBrainstorm(t *testing.T) {
	raw := `{"thesis":"T","topics":["a","b"],"researchQuestions":["q1"]}`
	result, err := ParseBrainstorm(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Thesis != "T" || len(result.Topics) != 2 || len(result.ResearchQuestions) != 1 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestParseBrainstormMissingThesis(t *testing.T) {
	if _, err := ParseBrainstorm(`{"topics":["a"]}`); err == nil {
		t.Fatal("expected error for missing thesis")
	}
}

func TestNormalizeConceptsArray(t *testing.T) {
	raw := `[{"title":"A","tagline":"t","description":"d","targetMarket":"m"},{"title":"B"}]`
	concepts, err := NormalizeConcepts(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(concepts) != 2 || concepts[0].Title != "A" {
		t.Errorf("unexpected concepts: %+v", concepts)
	}
}

func TestNormalizeConceptsWrappedObject(t *testing.T) {
	for _, key := range []string{"concepts", "data"} {
		raw := `{"` + key + `":[{"title":"A"}]}`
		concepts, err := NormalizeConcepts(raw)
		if err != nil {
			t.Fatalf("key %s: unexpected error: %v", key, err)
		}
		if len(concepts) != 1 || concepts[0].Title != "A" {
			t.Errorf("key %s: unexpected concepts: %+v", key, concepts)
		}
	}
}

func TestNormalizeConceptsBareObject(t *testing.T) {
	raw := `{"title":"Solo","tagline":"t","description":"d","targetMarket":"m"}`
	concepts, err := NormalizeConcepts(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(concepts) != 1 || concepts[0].Title != "Solo" {
		t.Errorf("expected single-element array, got: %+v", concepts)
	}
}

func TestNormalizeConceptsGarbage(t *testing.T) {
	if _, err := NormalizeConcepts("not json at all"); err == nil {
		t.Fatal("expected error for unparseable input")
	}
}

func TestNormalizeConceptSliceLeavesInputIntact(t *testing.T) {
	stored := []entity.BookConcept{{Title: ""}, {Title: "B"}, {Title: "C"}}

	filtered := NormalizeConceptSlice(stored)

	if len(filtered) != 2 || filtered[0].Title != "B" || filtered[1].Title != "C" {
		t.Errorf("unexpected filtered concepts: %+v", filtered)
	}
	// 原集合可能被调用方继续持久化，过滤不能改写它
	want := []string{"", "B", "C"}
	for i, c := range stored {
		if c.Title != want[i] {
			t.Fatalf("input mutated at %d: got %q, want %q (full: %+v)", i, c.Title, want[i], stored)
		}
	}
}

func TestParseOutline(t *testing.T) {
	raw := `[{"id":"ch1","title":"One","summary":"s1","sections":["a","b","c"]},{"id":"ch2","title":"Two","summary":"s2","sections":["x"]}]`
	chapters, err := ParseOutline(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chapters) != 2 || chapters[1].Title != "Two" {
		t.Errorf("unexpected outline: %+v", chapters)
	}
}

func TestParseOutlineWrapped(t *testing.T) {
	raw := `{"chapters":[{"title":"One","summary":"s","sections":[]}]}`
	chapters, err := ParseOutline(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chapters) != 1 {
		t.Errorf("unexpected outline: %+v", chapters)
	}
}

func TestParseOutlineDropsUntitled(t *testing.T) {
	raw := `[{"title":"","summary":"s"},{"title":"Real","summary":"s"}]`
	chapters, err := ParseOutline(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chapters) != 1 || chapters[0].Title != "Real" {
		t.Errorf("unexpected outline: %+v", chapters)
	}
}

func TestClampConceptIndex(t *testing.T) {
	cases := []struct {
		index, length, want int
	}{
		{0, 3, 0},
		{2, 3, 2},
		{7, 3, 0},
		{-1, 3, 0},
	}
	for _, tc := range cases {
		if got := ClampConceptIndex(tc.index, tc.length); got != tc.want {
			t.Errorf("ClampConceptIndex(%d, %d) = %d, want %d", tc.index, tc.length, got, tc.want)
		}
	}
}
