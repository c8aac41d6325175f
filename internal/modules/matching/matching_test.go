// README: Matching service tests: candidate eligibility, exclusion, ranking.
package matching

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"aidlink/internal/config"
	"aidlink/internal/geo"
	"aidlink/internal/modules/provider"
	"aidlink/internal/modules/ticket"
	"aidlink/internal/types"
)

// fakeDirectory serves a fixed provider set, computing distances with the
// same haversine the real GEO index approximates.
type fakeDirectory struct {
	providers []provider.Provider
}

func (f *fakeDirectory) Nearby(ctx context.Context, p types.Point, searchRadiusKm float64, limit int) ([]provider.Near, error) {
	var out []provider.Near
	for _, pr := range f.providers {
		d := geo.HaversineKm(p, pr.Location)
		if d <= searchRadiusKm {
			out = append(out, provider.Near{Provider: pr, DistanceKm: d})
		}
	}
	geo.SortByDistance(out, func(n provider.Near) float64 { return n.DistanceKm })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeDirectory) ByCategories(ctx context.Context, categories []string, limit int) ([]provider.Provider, error) {
	var out []provider.Provider
	for _, pr := range f.providers {
		for _, c := range categories {
			if pr.ServesCategory(c) {
				out = append(out, pr)
				break
			}
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// latOffsetKm shifts a point north by roughly km kilometres.
func latOffsetKm(p types.Point, km float64) types.Point {
	return types.Point{Lat: p.Lat + km/111.19, Lng: p.Lng}
}

var testOrigin = types.Point{Lat: 24.0, Lng: 121.0}

func radiusPtr(km float64) *float64 { return &km }

func testProvider(id string, loc types.Point, radiusKm *float64, cats []string, cap provider.Capacity) provider.Provider {
	return provider.Provider{
		ID:              types.ID(id),
		Name:            id,
		Location:        loc,
		ServiceRadiusKm: radiusKm,
		Availability:    provider.AvailabilityPartTime,
		Categories:      cats,
		Capacity:        cap,
	}
}

func testTicket(loc *types.Point, cats []string, quantities map[string]int) *ticket.Ticket {
	return &ticket.Ticket{
		ID:         "t1",
		Location:   loc,
		Categories: cats,
		Quantities: quantities,
		Status:     ticket.StatusActive,
	}
}

func newTestService(dir Directory) *Service {
	match := config.MatchingConfig{SearchRadiusKm: 200, MaxCandidates: 200, MaxResults: 20, EtaRefineTopK: 0}
	return NewService(dir, config.DefaultScoring(), match, config.DefaultCombination(), nil, zerolog.Nop())
}

func TestMatchTicket_RadiusInclusion(t *testing.T) {
	within := testProvider("within", latOffsetKm(testOrigin, 5), radiusPtr(10), []string{types.CategoryFood}, provider.Capacity{FoodPerDay: 10})
	beyond := testProvider("beyond", latOffsetKm(testOrigin, 15), radiusPtr(10), []string{types.CategoryFood}, provider.Capacity{FoodPerDay: 10})
	noRadius := testProvider("no_radius", latOffsetKm(testOrigin, 150), nil, []string{types.CategoryFood}, provider.Capacity{FoodPerDay: 10})

	svc := newTestService(&fakeDirectory{providers: []provider.Provider{within, beyond, noRadius}})
	got, err := svc.MatchTicket(context.Background(), testTicket(&testOrigin, []string{types.CategoryFood}, nil), Options{})
	if err != nil {
		t.Fatalf("MatchTicket: %v", err)
	}

	ids := candidateIDs(got)
	if !ids["within"] {
		t.Errorf("provider inside its radius missing from candidates")
	}
	if ids["beyond"] {
		t.Errorf("provider beyond its declared radius must be excluded")
	}
	if !ids["no_radius"] {
		t.Errorf("provider without a declared radius must be included by default")
	}
}

func TestMatchTicket_ExcludedProvidersNeverAppear(t *testing.T) {
	a := testProvider("a", latOffsetKm(testOrigin, 1), nil, []string{types.CategoryFood}, provider.Capacity{FoodPerDay: 100})
	b := testProvider("b", latOffsetKm(testOrigin, 2), nil, []string{types.CategoryFood}, provider.Capacity{FoodPerDay: 100})

	svc := newTestService(&fakeDirectory{providers: []provider.Provider{a, b}})
	got, err := svc.MatchTicket(context.Background(),
		testTicket(&testOrigin, []string{types.CategoryFood}, nil),
		Options{ExcludeProviderIDs: []types.ID{"a"}})
	if err != nil {
		t.Fatalf("MatchTicket: %v", err)
	}
	if candidateIDs(got)["a"] {
		t.Errorf("excluded provider appeared in match output")
	}
	if !candidateIDs(got)["b"] {
		t.Errorf("non-excluded provider missing")
	}
}

func TestMatchTicket_RankedByScoreThenDistance(t *testing.T) {
	// far serves two categories, near serves one: far outscores near despite
	// the larger distance penalty.
	near := testProvider("near", latOffsetKm(testOrigin, 2), nil, []string{types.CategoryFood}, provider.Capacity{})
	far := testProvider("far", latOffsetKm(testOrigin, 6), nil, []string{types.CategoryFood, types.CategoryShelter}, provider.Capacity{})

	svc := newTestService(&fakeDirectory{providers: []provider.Provider{near, far}})
	got, err := svc.MatchTicket(context.Background(),
		testTicket(&testOrigin, []string{types.CategoryFood, types.CategoryShelter}, nil), Options{})
	if err != nil {
		t.Fatalf("MatchTicket: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].Provider.ID != "far" {
		t.Errorf("expected higher-scoring provider first, got %s", got[0].Provider.ID)
	}
	if got[0].Score <= got[1].Score {
		t.Errorf("ranking not descending: %f then %f", got[0].Score, got[1].Score)
	}
}

func TestMatchTicket_CapabilityFallbackWithoutLocation(t *testing.T) {
	food := testProvider("food", latOffsetKm(testOrigin, 5), nil, []string{types.CategoryFood}, provider.Capacity{})
	medical := testProvider("medical", latOffsetKm(testOrigin, 5), nil, []string{types.CategoryMedical}, provider.Capacity{})

	svc := newTestService(&fakeDirectory{providers: []provider.Provider{food, medical}})
	got, err := svc.MatchTicket(context.Background(), testTicket(nil, []string{types.CategoryFood}, nil), Options{})
	if err != nil {
		t.Fatalf("MatchTicket: %v", err)
	}
	ids := candidateIDs(got)
	if !ids["food"] || ids["medical"] {
		t.Errorf("capability fallback returned wrong set: %v", ids)
	}
	for _, c := range got {
		if c.DistanceKm != nil {
			t.Errorf("fallback candidates must carry no distance")
		}
		if c.EtaMinutes != nil {
			t.Errorf("fallback candidates must carry no ETA")
		}
	}
}

func TestMatchTicket_MaxResultsTruncates(t *testing.T) {
	var ps []provider.Provider
	for i := 0; i < 10; i++ {
		ps = append(ps, testProvider(string(rune('a'+i)), latOffsetKm(testOrigin, float64(i+1)), nil, []string{types.CategoryFood}, provider.Capacity{}))
	}
	svc := newTestService(&fakeDirectory{providers: ps})
	got, err := svc.MatchTicket(context.Background(), testTicket(&testOrigin, []string{types.CategoryFood}, nil), Options{MaxResults: 3})
	if err != nil {
		t.Fatalf("MatchTicket: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("expected 3 results, got %d", len(got))
	}
}

func TestLessByDistance_UnknownSortsLast(t *testing.T) {
	d := 5.0
	if !lessByDistance(&d, nil) {
		t.Errorf("known distance must sort before unknown")
	}
	if lessByDistance(nil, &d) {
		t.Errorf("unknown distance must sort after known")
	}
	if lessByDistance(nil, nil) {
		t.Errorf("two unknowns must not swap")
	}
}

func candidateIDs(cands []Candidate) map[types.ID]bool {
	out := make(map[types.ID]bool, len(cands))
	for _, c := range cands {
		out[c.Provider.ID] = true
	}
	return out
}
