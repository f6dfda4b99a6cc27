package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/scrollstats/internal/adapters/repository"
	service "github.com/okian/scrollstats/internal/app"
	"github.com/okian/scrollstats/internal/domain/columns"
	"github.com/okian/scrollstats/internal/domain/table"
	"github.com/okian/scrollstats/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const (
	warscrolls = "Warscroll,Faction,Games,Win %,Win % Without,Used %\n" +
		"Liberators,Stormcast Eternals,20,60%,50%,30%\n" +
		"Vindictors,Stormcast Eternals,12,40%,50%,45%\n" +
		"Prosecutors,Stormcast Eternals,4,70%,50%,5%\n" +
		"Annihilators,stormcast eternals,8,58%,52%,10%\n" +
		"Saurus Warriors,Seraphon,30,45%,49%,60%\n"

	factions = "Faction,Formation,Games,Wins,Losses,Win %,Avg Elo,Median Elo\n" +
		"Stormcast Eternals,Thunderhead Host,40,18,22,45%,420,415\n" +
		"Stormcast Eternals,Overall,200,104,96,52%,530,480\n" +
		"Seraphon,Overall,150,70,80,46.7%,400,430\n"

	league = "Player,Faction,Games,Wins,Losses,Elo\n" +
		"Alice,Seraphon,10,7,3,512\n" +
		"Bob,Stormcast Eternals,12,6,6,470\n" +
		"Cara,Seraphon,3,3,0,530\n"
)

var loadedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeStore serves fixed datasets.
type fakeStore struct {
	data      map[repository.ID]*repository.Dataset
	errs      map[repository.ID]error
	ensures   atomic.Int32
	refreshes atomic.Int32
}

func newStore() *fakeStore {
	return &fakeStore{
		data: map[repository.ID]*repository.Dataset{
			repository.Warscroll: dataset(repository.Warscroll, warscrolls),
			repository.Faction:   dataset(repository.Faction, factions),
			repository.League:    dataset(repository.League, league),
		},
		errs: map[repository.ID]error{},
	}
}

func dataset(id repository.ID, raw string) *repository.Dataset {
	tbl, err := table.Parse([]byte(raw))
	if err != nil {
		panic(err)
	}
	return &repository.Dataset{
		ID:         id,
		Headers:    tbl.Headers,
		Records:    tbl.Records(),
		Resolution: columns.NewResolution(tbl.Headers),
		LoadedAt:   loadedAt,
		Generation: "gen-" + string(id),
	}
}

func (f *fakeStore) Ensure(_ context.Context, id repository.ID) (*repository.Dataset, error) {
	f.ensures.Add(1)
	if err := f.errs[id]; err != nil {
		return nil, err
	}
	ds, ok := f.data[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", repository.ErrNotConfigured, id)
	}
	return ds, nil
}

func (f *fakeStore) Refresh(_ context.Context, id repository.ID) repository.Outcome {
	f.refreshes.Add(1)
	ds, ok := f.data[id]
	if !ok {
		return repository.Outcome{Dataset: id, Kind: repository.NotConfigured, Err: repository.ErrNotConfigured}
	}
	if err := f.errs[id]; err != nil {
		return repository.Outcome{Dataset: id, Kind: repository.KeptStale, Rows: ds.Len(), LoadedAt: ds.LoadedAt, Err: err}
	}
	return repository.Outcome{Dataset: id, Kind: repository.Reloaded, Rows: ds.Len(), LoadedAt: ds.LoadedAt, Generation: ds.Generation}
}

func (f *fakeStore) RefreshAll(ctx context.Context) []repository.Outcome {
	var out []repository.Outcome
	for _, id := range repository.IDs() {
		out = append(out, f.Refresh(ctx, id))
	}
	return out
}

func (f *fakeStore) Status(_ context.Context) []repository.Status {
	var out []repository.Status
	for _, id := range repository.IDs() {
		st := repository.Status{Dataset: id, State: repository.StateEmpty}
		if ds, ok := f.data[id]; ok {
			st.Configured, st.State, st.Rows, st.LoadedAt = true, repository.StateReady, ds.Len(), ds.LoadedAt
		}
		out = append(out, st)
	}
	return out
}

func newService(store repository.Store) *service.Service {
	return service.New(store,
		service.WithLogger(logger.Nop()),
		service.WithAdmins("admin-1"),
	)
}

func labels(r *service.Result) []string {
	out := make([]string, 0, len(r.Records))
	for _, row := range r.Records {
		out = append(out, row.Label)
	}
	return out
}

func cell(r *service.Result, i int, field string) string {
	v, _ := r.Records[i].Get(field)
	return v
}

func kind(err error) service.ErrorKind {
	var e *service.Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func TestService_Usage(t *testing.T) {
	Convey("Given the unit dataset", t, func() {
		svc := newService(newStore())
		ctx := context.Background()

		Convey("When asking for the most common Stormcast units", func() {
			res, err := svc.MostCommon(ctx, "stormcast")

			Convey("Then units under the game threshold are excluded and usage sorts descending", func() {
				So(err, ShouldBeNil)
				So(labels(res), ShouldResemble, []string{"Vindictors", "Liberators", "Annihilators"})
				So(cell(res, 0, string(columns.UsedPercent)), ShouldEqual, "45.0%")
				So(res.Meta.DisplayName, ShouldEqual, "Stormcast Eternals")
				So(res.Meta.MinGames, ShouldEqual, 5)
				So(res.Meta.DatasetTimestamp, ShouldEqual, loadedAt)
			})
		})

		Convey("When asking for the least common", func() {
			res, err := svc.LeastCommon(ctx, "Stormcast Eternals")

			So(err, ShouldBeNil)
			So(labels(res), ShouldResemble, []string{"Annihilators", "Liberators", "Vindictors"})
		})

		Convey("When the faction is missing", func() {
			_, err := svc.MostCommon(ctx, " ")

			So(kind(err), ShouldEqual, service.KindBadRequest)
			So(errors.Is(err, service.ErrMissingArgument), ShouldBeTrue)
		})
	})
}

func TestService_Impact(t *testing.T) {
	Convey("Given the unit and faction datasets", t, func() {
		svc := newService(newStore())
		ctx := context.Background()

		Convey("Within-unit impact ranks by win rate with minus without", func() {
			res, err := svc.Impact(ctx, "Stormcast Eternals")

			So(err, ShouldBeNil)
			So(labels(res), ShouldResemble, []string{"Liberators", "Annihilators", "Vindictors"})
			So(cell(res, 0, service.CellImpact), ShouldEqual, "+10pp")
			So(cell(res, 2, service.CellImpact), ShouldEqual, "-10pp")

			least, err := svc.LeastImpact(ctx, "Stormcast Eternals")
			So(err, ShouldBeNil)
			So(labels(least)[0], ShouldEqual, "Vindictors")
		})

		Convey("Pulling up keeps positive lift over the faction overall win rate", func() {
			res, err := svc.PullingUp(ctx, "stormcast eternals")

			So(err, ShouldBeNil)
			So(res.Meta.BaselineUsed, ShouldEqual, "52.0%")
			So(labels(res), ShouldResemble, []string{"Liberators", "Annihilators"})
			So(cell(res, 0, service.CellLift), ShouldEqual, "+8pp")
			So(cell(res, 1, service.CellLift), ShouldEqual, "+6pp")
		})

		Convey("Pulling down keeps negative lift, most negative first", func() {
			res, err := svc.PullingDown(ctx, "stormcast eternals")

			So(err, ShouldBeNil)
			So(labels(res), ShouldResemble, []string{"Vindictors"})
			So(cell(res, 0, service.CellLift), ShouldEqual, "-12pp")
		})

		Convey("A unit dataset without the without-unit column yields no impact rows", func() {
			store := newStore()
			store.data[repository.Warscroll] = dataset(repository.Warscroll,
				"Warscroll,Faction,Games,Win %\nLiberators,Stormcast Eternals,20,60%\n")
			res, err := newService(store).Impact(ctx, "Stormcast Eternals")

			So(err, ShouldBeNil)
			So(res.Empty(), ShouldBeTrue)
		})
	})
}

func TestService_Lookup(t *testing.T) {
	Convey("Given all datasets", t, func() {
		svc := newService(newStore())
		ctx := context.Background()

		Convey("Warscroll search respects the game threshold", func() {
			res, err := svc.WarscrollSearch(ctx, "saurus")
			So(err, ShouldBeNil)
			So(labels(res), ShouldResemble, []string{"Saurus Warriors"})
			So(cell(res, 0, service.CellImpact), ShouldEqual, "-4pp")

			res, err = svc.WarscrollSearch(ctx, "Prosecutors")
			So(err, ShouldBeNil)
			So(res.Empty(), ShouldBeTrue)
			So(res.Meta.MinGames, ShouldEqual, 5)
		})

		Convey("Compare returns the best match for each side", func() {
			res, err := svc.Compare(ctx, "liberators", "vindictors")

			So(err, ShouldBeNil)
			So(labels(res), ShouldResemble, []string{"Liberators", "Vindictors"})
			So(res.Meta.Query, ShouldEqual, "liberators vs vindictors")
		})

		Convey("Faction stats default to the overall row", func() {
			res, err := svc.FactionStats(ctx, "stormcast", "")

			So(err, ShouldBeNil)
			So(res.Records, ShouldHaveLength, 1)
			So(res.Records[0].Label, ShouldEqual, "Stormcast Eternals")
			So(cell(res, 0, string(columns.Formation)), ShouldEqual, "Overall")
			So(cell(res, 0, string(columns.WinRate)), ShouldEqual, "52.0%")
			So(cell(res, 0, service.CellDispersion), ShouldEqual, "specialist-driven")
			So(res.Meta.Blurb, ShouldContainSubstring, "specialist-driven")
		})

		Convey("Faction stats can pick a formation", func() {
			res, err := svc.FactionStats(ctx, "stormcast", "thunderhead")

			So(err, ShouldBeNil)
			So(cell(res, 0, string(columns.Games)), ShouldEqual, "40")
			So(cell(res, 0, service.CellDispersion), ShouldEqual, "even")
		})

		Convey("Faction stats for an unknown formation is empty", func() {
			res, err := svc.FactionStats(ctx, "stormcast", "hunters")

			So(err, ShouldBeNil)
			So(res.Empty(), ShouldBeTrue)
		})

		Convey("League without a player lists the top rated players", func() {
			res, err := svc.League(ctx, "")

			So(err, ShouldBeNil)
			So(labels(res), ShouldResemble, []string{"Alice", "Bob"})
			So(cell(res, 0, string(columns.Elo)), ShouldEqual, "512")
		})

		Convey("Discovery lists distinct values", func() {
			res, err := svc.ListFactions(ctx, "storm")
			So(err, ShouldBeNil)
			So(labels(res), ShouldResemble, []string{"Stormcast Eternals"})
			So(cell(res, 0, service.CellCount), ShouldEqual, "2")

			res, err = svc.ListUnits(ctx, "seraphon", "")
			So(err, ShouldBeNil)
			So(labels(res), ShouldResemble, []string{"Saurus Warriors"})

			res, err = svc.ListFormations(ctx, "stormcast", "")
			So(err, ShouldBeNil)
			So(labels(res), ShouldResemble, []string{"Overall", "Thunderhead Host"})
		})
	})
}

func TestService_Errors(t *testing.T) {
	Convey("Given datasets with problems", t, func() {
		store := newStore()
		ctx := context.Background()

		Convey("A missing source is a configuration error", func() {
			delete(store.data, repository.League)
			_, err := newService(store).League(ctx, "alice")

			So(kind(err), ShouldEqual, service.KindConfigurationMissing)
			So(errors.Is(err, repository.ErrNotConfigured), ShouldBeTrue)
		})

		Convey("A failed first load is a fetch error", func() {
			store.errs[repository.Warscroll] = fmt.Errorf("%w: boom", repository.ErrFetchFailed)
			_, err := newService(store).WarscrollSearch(ctx, "liberators")

			So(kind(err), ShouldEqual, service.KindFetchFailed)
		})

		Convey("Factions fall back to the unit dataset without a faction source", func() {
			delete(store.data, repository.Faction)
			res, err := newService(store).ListFactions(ctx, "")

			So(err, ShouldBeNil)
			So(labels(res), ShouldResemble, []string{"Stormcast Eternals", "Seraphon"})
		})
	})
}

func TestService_Refresh(t *testing.T) {
	Convey("Given a service with one admin", t, func() {
		store := newStore()
		svc := newService(store)
		ctx := context.Background()

		Convey("When a non-admin refreshes", func() {
			_, err := svc.Refresh(ctx, "someone")

			Convey("Then it is rejected before any dataset access", func() {
				So(kind(err), ShouldEqual, service.KindUnauthorized)
				So(errors.Is(err, service.ErrUnauthorized), ShouldBeTrue)
				So(store.refreshes.Load(), ShouldEqual, 0)
				So(store.ensures.Load(), ShouldEqual, 0)
			})
		})

		Convey("When the admin refreshes with one failing source", func() {
			store.errs[repository.Faction] = errors.New("503")
			delete(store.data, repository.League)
			res, err := svc.Refresh(ctx, "admin-1")

			Convey("Then every dataset reports its outcome", func() {
				So(err, ShouldBeNil)
				So(labels(res), ShouldResemble, []string{"warscroll", "faction", "league"})
				So(cell(res, 0, "outcome"), ShouldEqual, string(repository.Reloaded))
				So(cell(res, 1, "outcome"), ShouldEqual, string(repository.KeptStale))
				So(cell(res, 1, "error"), ShouldEqual, "503")
				So(cell(res, 2, "outcome"), ShouldEqual, string(repository.NotConfigured))
				So(res.Meta.DatasetTimestamp, ShouldEqual, loadedAt)
			})
		})
	})
}

func TestService_Dispatch(t *testing.T) {
	Convey("Given the dispatcher", t, func() {
		svc := newService(newStore())
		ctx := context.Background()

		Convey("Commands route by name with string arguments", func() {
			res, err := svc.Dispatch(ctx, service.Command{Name: "Most-Common", Args: map[string]string{"faction": "seraphon"}})

			So(err, ShouldBeNil)
			So(res.Command, ShouldEqual, service.CmdMostCommon)
			So(labels(res), ShouldResemble, []string{"Saurus Warriors"})
		})

		Convey("Unknown commands are bad requests", func() {
			_, err := svc.Dispatch(ctx, service.Command{Name: "nope"})

			So(kind(err), ShouldEqual, service.KindBadRequest)
			So(errors.Is(err, service.ErrUnknownCommand), ShouldBeTrue)
		})

		Convey("Refresh uses the caller id", func() {
			_, err := svc.Dispatch(ctx, service.Command{Name: service.CmdRefresh, Caller: "admin-1"})
			So(err, ShouldBeNil)
		})

		Convey("Status reports every dataset", func() {
			res, err := svc.Dispatch(ctx, service.Command{Name: service.CmdStatus})
			So(err, ShouldBeNil)
			So(res.Records, ShouldHaveLength, 3)
			So(cell(res, 0, "state"), ShouldEqual, string(repository.StateReady))
		})

		Convey("Every listed command routes", func() {
			for _, info := range service.Commands() {
				_, err := svc.Dispatch(ctx, service.Command{Name: info.Name, Caller: "admin-1", Args: map[string]string{
					"name": "stormcast", "a": "liberators", "b": "vindictors", "faction": "stormcast",
				}})
				So(kind(err), ShouldNotEqual, service.KindBadRequest)
			}
		})
	})
}

func TestService_OverlappingFactionNames(t *testing.T) {
	Convey("Given two factions whose names share a word", t, func() {
		store := newStore()
		store.data[repository.Warscroll] = dataset(repository.Warscroll,
			"Warscroll,Faction,Games,Win %,Win % Without,Used %\n"+
				"Chaos Warriors,Khorne Bloodbound,30,45%,40%,80%\n"+
				"Bloodreavers,Blades of Khorne,20,60%,50%,40%\n"+
				"Skullreapers,Blades of Khorne,10,55%,50%,20%\n")
		store.data[repository.Faction] = dataset(repository.Faction,
			"Faction,Formation,Games,Win %,Avg Elo,Median Elo\n"+
				"Khorne Bloodbound,Overall,50,40%,410,405\n"+
				"Blades of Khorne,Overall,90,52%,450,440\n"+
				"Blades of Khorne,Gorechosen,30,53%,455,450\n")
		svc := newService(store)
		ctx := context.Background()

		Convey("Then unit rankings keep to the chosen faction", func() {
			res, err := svc.MostCommon(ctx, "khorne")

			So(err, ShouldBeNil)
			So(res.Meta.DisplayName, ShouldEqual, "Blades of Khorne")
			So(labels(res), ShouldResemble, []string{"Bloodreavers", "Skullreapers"})
		})

		Convey("Then faction stats show that faction's own overall row", func() {
			res, err := svc.FactionStats(ctx, "khorne", "")

			So(err, ShouldBeNil)
			So(res.Records[0].Label, ShouldEqual, "Blades of Khorne")
			So(cell(res, 0, string(columns.WinRate)), ShouldEqual, "52.0%")
		})

		Convey("Then lift is measured against that faction's baseline", func() {
			res, err := svc.PullingUp(ctx, "khorne")

			So(err, ShouldBeNil)
			So(res.Meta.BaselineUsed, ShouldEqual, "52.0%")
			So(labels(res), ShouldResemble, []string{"Bloodreavers", "Skullreapers"})
		})
	})
}
