package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/scrollstats/internal/adapters/http/api"
	service "github.com/okian/scrollstats/internal/app"
	"github.com/okian/scrollstats/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// mockDeps records the last command and answers from a table.
type mockDeps struct {
	last    service.Command
	results map[string]*service.Result
	errs    map[string]error
}

func (m *mockDeps) Dispatch(_ context.Context, c service.Command) (*service.Result, error) {
	m.last = c
	if err, ok := m.errs[c.Name]; ok {
		return nil, err
	}
	if res, ok := m.results[c.Name]; ok {
		return res, nil
	}
	return nil, &service.Error{Kind: service.KindBadRequest, Message: "unknown command"}
}

func (m *mockDeps) Status(_ context.Context) (*service.Result, error) {
	return &service.Result{Command: service.CmdStatus, Records: []service.Row{{Label: "warscroll"}}}, nil
}

func newMux(deps *mockDeps) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, api.WithLogger(logger.Nop())).Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestServer_Commands(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := &mockDeps{
			results: map[string]*service.Result{
				service.CmdMostCommon: {
					Command: service.CmdMostCommon,
					Records: []service.Row{{Label: "Vindictors", Cells: []service.Cell{{Field: "used_percent", Value: "45.0%"}}}},
					Meta:    service.Meta{MinGames: 5, DisplayName: "Stormcast Eternals", DatasetTimestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
				},
				service.CmdWarscrollSearch: {Command: service.CmdWarscrollSearch, Meta: service.Meta{MinGames: 5, Query: "nagash"}},
			},
			errs: map[string]error{
				service.CmdRefresh: &service.Error{Kind: service.KindUnauthorized, Message: "only bot admins can refresh data"},
				service.CmdLeague:  &service.Error{Kind: service.KindConfigurationMissing, Message: "the league data source is not configured"},
				service.CmdCompare: &service.Error{Kind: service.KindFetchFailed, Message: "could not load warscroll data"},
			},
		}
		mux := newMux(deps)

		Convey("When posting a command with JSON args", func() {
			w := do(mux, http.MethodPost, "/commands/most-common", `{"args":{"Faction":"stormcast"},"caller":"u1"}`)

			Convey("Then the command is dispatched and the result returned as JSON", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.last.Name, ShouldEqual, service.CmdMostCommon)
				So(deps.last.Args["faction"], ShouldEqual, "stormcast")
				So(deps.last.Caller, ShouldEqual, "u1")
				So(w.Header().Get("X-Request-ID"), ShouldNotBeEmpty)

				var got service.Result
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got.Records[0].Label, ShouldEqual, "Vindictors")
				So(got.Meta.DisplayName, ShouldEqual, "Stormcast Eternals")
			})
		})

		Convey("When asking for text", func() {
			w := do(mux, http.MethodPost, "/commands/most-common?format=text&faction=stormcast", "")

			Convey("Then args come from the query string and the body is rendered text", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "text/plain")
				So(deps.last.Args["faction"], ShouldEqual, "stormcast")
				_, hasFormat := deps.last.Args["format"]
				So(hasFormat, ShouldBeFalse)
				So(w.Body.String(), ShouldStartWith, "most-common: Stormcast Eternals\n")
			})
		})

		Convey("When nothing matches", func() {
			w := do(mux, http.MethodPost, "/commands/warscroll-search?format=text", `{"args":{"name":"nagash"}}`)

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "No results with at least 5 games")
		})

		Convey("When commands fail", func() {
			Convey("Then error kinds map to statuses", func() {
				So(do(mux, http.MethodPost, "/commands/refresh", `{"caller":"u1"}`).Code, ShouldEqual, http.StatusForbidden)
				So(do(mux, http.MethodPost, "/commands/league", "").Code, ShouldEqual, http.StatusServiceUnavailable)
				So(do(mux, http.MethodPost, "/commands/compare", "").Code, ShouldEqual, http.StatusBadGateway)
				So(do(mux, http.MethodPost, "/commands/nope", "").Code, ShouldEqual, http.StatusBadRequest)
			})

			Convey("Then the body carries the code and message", func() {
				w := do(mux, http.MethodPost, "/commands/refresh", "")
				var body map[string]string
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body["code"], ShouldEqual, "unauthorized")
				So(body["message"], ShouldEqual, "only bot admins can refresh data")
			})
		})

		Convey("When the body is not JSON", func() {
			w := do(mux, http.MethodPost, "/commands/most-common", "{")

			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When using the wrong method", func() {
			So(do(mux, http.MethodGet, "/commands/most-common", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})

		Convey("When listing commands", func() {
			w := do(mux, http.MethodGet, "/commands", "")

			var infos []service.CommandInfo
			So(w.Code, ShouldEqual, http.StatusOK)
			So(json.Unmarshal(w.Body.Bytes(), &infos), ShouldBeNil)
			So(len(infos), ShouldEqual, len(service.Commands()))
		})
	})
}

func TestServer_Health(t *testing.T) {
	Convey("Given an API server", t, func() {
		mux := newMux(&mockDeps{})

		Convey("Health serves Prometheus metrics", func() {
			do(mux, http.MethodPost, "/commands/anything", "")
			w := do(mux, http.MethodGet, "/healthz", "")

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "scrollstats_http_requests_total")
		})

		Convey("Status returns the cache report", func() {
			w := do(mux, http.MethodGet, "/status", "")

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"label":"warscroll"`)
		})
	})
}
