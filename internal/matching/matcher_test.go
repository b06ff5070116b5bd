package matching

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/lehigh-university-libraries/volmerge/internal/records"
)

// rec builds a record from alternating key/value strings
func rec(kv ...string) records.Record {
	var r records.Record
	for i := 0; i+1 < len(kv); i += 2 {
		r.Set(kv[i], kv[i+1])
	}
	return r
}

func TestComparators(t *testing.T) {
	tests := []struct {
		name       string
		comparator Comparator
		a, b       string
		min, max   float64
	}{
		{"identical names", NameComparator{}, "Jon Smith", "Jon Smith", 1, 1},
		{"case and punctuation", NameComparator{}, "JON SMITH.", "jon smith", 1, 1},
		{"token order", NameComparator{}, "Smith, Jon", "Jon Smith", 1, 1},
		{"accents", NameComparator{}, "José Núñez", "Jose Nunez", 1, 1},
		{"typo", NameComparator{}, "Jon Smith", "John Smith", 0.7, 0.99},
		{"disjoint names", NameComparator{}, "Alice", "Zephyr", 0, 0},
		{"email case", EmailComparator{}, "Jon@X.com", "jon@x.com", 1, 1},
		{"email different", EmailComparator{}, "jon@x.com", "quinn@y.org", 0, 0.2},
		{"phone formatting", PhoneComparator{}, "(555) 010-0123", "555.010.0123", 1, 1},
		{"phone country code", PhoneComparator{}, "+1 555 010 0123", "5550100123", 1, 1},
		{"phone one digit off", PhoneComparator{}, "5550100123", "5550100124", 0.85, 0.95},
		{"phone disjoint", PhoneComparator{}, "123", "456", 0, 0},
		{"text fallback", TextComparator{}, "North Branch", "north-branch", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tt.comparator.Normalize(tt.a)
			b := tt.comparator.Normalize(tt.b)
			got := tt.comparator.Similarity(a, b)
			if got < tt.min || got > tt.max {
				t.Errorf("Similarity(%q, %q) = %.3f, want in [%.2f, %.2f]", tt.a, tt.b, got, tt.min, tt.max)
			}
			if back := tt.comparator.Similarity(b, a); back != got {
				t.Errorf("Similarity not symmetric: %.6f vs %.6f", got, back)
			}
		})
	}
}

func TestFindBestMatches_RoundTrip(t *testing.T) {
	a := []records.Record{rec("name", "Jon Smith", "email", "jon@x.com")}
	b := []records.Record{rec("name", "Jon Smith", "email", "jon@x.com")}

	candidates, err := FindBestMatches(context.Background(), a, b, DefaultOptions())
	if err != nil {
		t.Fatalf("FindBestMatches: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	c := candidates[0]
	if c.Confidence != 1.0 {
		t.Errorf("confidence = %f, want 1.0", c.Confidence)
	}
	if !reflect.DeepEqual(c.Details, map[string]float64{"name": 1, "email": 1}) {
		t.Errorf("details = %v", c.Details)
	}
	if c.ID == "" {
		t.Error("candidate should have an ID")
	}

	review := NewReview(candidates, false)
	if _, err := review.Confirm(c.ID); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	result := ExecuteMerge(review.Confirmed, a, b)
	if len(result.Data) != 1 || result.Data[0].Source != SourceBoth {
		t.Fatalf("expected one merged record tagged both, got %+v", result.Data)
	}
	want := MergeStats{TotalRecords: 1, MergedRecords: 1}
	if result.Stats != want {
		t.Errorf("stats = %+v, want %+v", result.Stats, want)
	}
}

func TestFindBestMatches_Disjoint(t *testing.T) {
	a := []records.Record{rec("name", "Alice")}
	b := []records.Record{rec("name", "Zephyr")}

	candidates, err := FindBestMatches(context.Background(), a, b, DefaultOptions())
	if err != nil {
		t.Fatalf("FindBestMatches: %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("expected no candidates, got %+v", candidates)
	}

	result := ExecuteMerge(nil, a, b)
	want := MergeStats{TotalRecords: 2, FileAOnly: 1, FileBOnly: 1}
	if result.Stats != want {
		t.Errorf("stats = %+v, want %+v", result.Stats, want)
	}
	if result.Data[0].Source != SourceFileA || result.Data[1].Source != SourceFileB {
		t.Errorf("unexpected provenance order: %s, %s", result.Data[0].Source, result.Data[1].Source)
	}
}

func TestFindBestMatches_EmptyInputs(t *testing.T) {
	some := []records.Record{rec("name", "Jon")}
	for _, tc := range []struct {
		name string
		a, b []records.Record
	}{
		{"empty a", nil, some},
		{"empty b", some, nil},
		{"both empty", nil, nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FindBestMatches(context.Background(), tc.a, tc.b, DefaultOptions())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got == nil || len(got) != 0 {
				t.Errorf("expected empty non-nil slice, got %#v", got)
			}
		})
	}
}

func TestFindBestMatches_MissingFieldsDoNotCount(t *testing.T) {
	a := []records.Record{
		rec("name", "Jon Smith", "phone", ""),
		rec("email", "ann@x.com"),
	}
	b := []records.Record{
		rec("name", "Jon Smith", "phone", "555-0100"),
		rec("name", "Ann Lee"),
	}

	opts := DefaultOptions()
	opts.Threshold = 0
	candidates, err := FindBestMatches(context.Background(), a, b, opts)
	if err != nil {
		t.Fatalf("FindBestMatches: %v", err)
	}

	// a[1] has only email and neither b record has one: no comparable fields.
	for _, c := range candidates {
		if c.IndexA == 1 {
			t.Errorf("record with no comparable fields was matched: %+v", c)
		}
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates for a[0], got %d", len(candidates))
	}
	top := candidates[0]
	if top.IndexA != 0 || top.IndexB != 0 || top.Confidence != 1.0 {
		t.Errorf("top candidate = %+v", top)
	}
	if _, ok := top.Details["phone"]; ok {
		t.Error("blank phone should not appear in details")
	}
}

func TestFindBestMatches_SymmetricConfidence(t *testing.T) {
	a := []records.Record{
		rec("name", "Jon Smith", "email", "jon@x.com", "phone", "555 010 0123"),
		rec("name", "Maria Garcia", "email", "mgarcia@example.org"),
		rec("name", "Lee, Ann", "phone", "555-010-9999"),
	}
	b := []records.Record{
		rec("name", "Jonathan Smith", "email", "jon.smith@x.com"),
		rec("name", "Ann Lee", "phone", "5550109998"),
		rec("name", "Maria Garcia-Lopez", "email", "MGarcia@example.org", "phone", "555 222 3333"),
	}

	opts := DefaultOptions()
	opts.Threshold = 0
	opts.MaxMatches = -1

	forward, err := FindBestMatches(context.Background(), a, b, opts)
	if err != nil {
		t.Fatal(err)
	}
	backward, err := FindBestMatches(context.Background(), b, a, opts)
	if err != nil {
		t.Fatal(err)
	}

	scores := make(map[[2]int]float64)
	for _, c := range backward {
		scores[[2]int{c.IndexB, c.IndexA}] = c.Confidence
	}
	if len(forward) != len(backward) {
		t.Fatalf("forward has %d pairs, backward %d", len(forward), len(backward))
	}
	for _, c := range forward {
		back, ok := scores[[2]int{c.IndexA, c.IndexB}]
		if !ok {
			t.Errorf("pair (%d,%d) missing when datasets are swapped", c.IndexA, c.IndexB)
			continue
		}
		if back != c.Confidence {
			t.Errorf("pair (%d,%d): confidence %.6f vs %.6f after swap", c.IndexA, c.IndexB, c.Confidence, back)
		}
	}
}

func TestFindBestMatches_ThresholdAndLimit(t *testing.T) {
	var a, b []records.Record
	for i := 0; i < 20; i++ {
		a = append(a, rec("name", fmt.Sprintf("Volunteer Number %02d", i)))
		b = append(b, rec("name", fmt.Sprintf("Volunteer Number %02d", i)))
	}

	opts := DefaultOptions()
	opts.Threshold = 0.8
	opts.MaxMatches = 15

	candidates, err := FindBestMatches(context.Background(), a, b, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) > 15 {
		t.Errorf("got %d candidates, limit is 15", len(candidates))
	}
	for i, c := range candidates {
		if c.Confidence < 0.8 {
			t.Errorf("candidate below threshold: %+v", c)
		}
		if i > 0 && candidates[i-1].Confidence < c.Confidence {
			t.Errorf("candidates not sorted at %d", i)
		}
	}
}

func TestFindBestMatches_DeterministicAcrossWorkers(t *testing.T) {
	var a, b []records.Record
	names := []string{"Jon Smith", "Jo Smith", "John Smyth", "Ann Lee", "Anne Lee", "Lee Ann"}
	for _, n := range names {
		a = append(a, rec("name", n))
		b = append(b, rec("name", n))
	}

	opts := DefaultOptions()
	opts.Threshold = 0.3

	var orders [][][2]int
	for _, workers := range []int{1, 2, 8} {
		opts.Workers = workers
		candidates, err := FindBestMatches(context.Background(), a, b, opts)
		if err != nil {
			t.Fatal(err)
		}
		var order [][2]int
		for _, c := range candidates {
			order = append(order, [2]int{c.IndexA, c.IndexB})
		}
		orders = append(orders, order)
	}

	for i := 1; i < len(orders); i++ {
		if !reflect.DeepEqual(orders[0], orders[i]) {
			t.Errorf("order differs between worker counts:\n%v\n%v", orders[0], orders[i])
		}
	}

	// ties are broken by (indexA, indexB)
	first := orders[0]
	if first[0] != [2]int{0, 0} {
		t.Errorf("first candidate = %v, want [0 0]", first[0])
	}
}

func TestFindBestMatches_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := []records.Record{rec("name", "Jon")}
	_, err := FindBestMatches(ctx, a, a, DefaultOptions())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestFindBestMatches_CustomFields(t *testing.T) {
	a := []records.Record{rec("assignee", "Jon Smith", "branch", "North")}
	b := []records.Record{rec("assignee", "Smith Jon", "branch", "South")}

	opts := DefaultOptions()
	opts.Fields = []string{"assignee", "branch"}
	opts.Comparators = map[string]Comparator{"assignee": NameComparator{}}
	opts.Threshold = 0

	candidates, err := FindBestMatches(context.Background(), a, b, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].Details["assignee"] != 1 {
		t.Errorf("assignee similarity = %f", candidates[0].Details["assignee"])
	}
	mean := (candidates[0].Details["assignee"] + candidates[0].Details["branch"]) / 2
	if math.Abs(candidates[0].Confidence-mean) > 1e-12 {
		t.Errorf("confidence %f is not the mean of %v", candidates[0].Confidence, candidates[0].Details)
	}
}

func TestSimilarity(t *testing.T) {
	conf, details := Similarity(
		rec("name", "Jon Smith", "email", "jon@x.com"),
		rec("name", "Jon Smith"),
		DefaultOptions(),
	)
	if conf != 1 || len(details) != 1 {
		t.Errorf("Similarity = %f, %v", conf, details)
	}
}
