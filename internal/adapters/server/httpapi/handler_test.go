package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/evanschultz/widgethub/internal/adapters/server/common"
	"github.com/evanschultz/widgethub/internal/app"
)

// stubBoardService records requests and returns configured fixtures.
type stubBoardService struct {
	board      common.BoardView
	err        error
	exported   []byte
	activity   []common.ActivityEntry
	lastAdd    common.AddWidgetRequest
	lastRemove string
	lastUpdate common.UpdateWidgetRequest
	lastWidth  common.SetColumnWidthRequest
	lastMove   common.MoveWidgetRequest
	lastPrefs  common.UpdateSettingsRequest
	lastImport []byte
	lastLimit  int
	lastSource string
}

func (s *stubBoardService) GetBoard(ctx context.Context) (common.BoardView, error) {
	s.lastSource = app.SourceFromContext(ctx)
	return s.board, s.err
}

func (s *stubBoardService) AddWidget(ctx context.Context, req common.AddWidgetRequest) (common.AddWidgetResult, error) {
	s.lastSource = app.SourceFromContext(ctx)
	s.lastAdd = req
	if s.err != nil {
		return common.AddWidgetResult{}, s.err
	}
	return common.AddWidgetResult{Widget: common.WidgetView{ID: "w1", Type: req.Kind}, Column: "left", Board: s.board}, nil
}

func (s *stubBoardService) RemoveWidget(_ context.Context, id string) (common.RemoveWidgetResult, error) {
	s.lastRemove = id
	return common.RemoveWidgetResult{Removed: true, Board: s.board}, s.err
}

func (s *stubBoardService) UpdateWidget(_ context.Context, req common.UpdateWidgetRequest) (common.BoardView, error) {
	s.lastUpdate = req
	return s.board, s.err
}

func (s *stubBoardService) SetColumnWidth(_ context.Context, req common.SetColumnWidthRequest) (common.BoardView, error) {
	s.lastWidth = req
	return s.board, s.err
}

func (s *stubBoardService) MoveWidget(_ context.Context, req common.MoveWidgetRequest) (common.MoveWidgetResult, error) {
	s.lastMove = req
	return common.MoveWidgetResult{Outcome: "moved", Board: s.board}, s.err
}

func (s *stubBoardService) UpdateSettings(_ context.Context, req common.UpdateSettingsRequest) (common.BoardView, error) {
	s.lastPrefs = req
	return s.board, s.err
}

func (s *stubBoardService) ExportSnapshot(context.Context) ([]byte, error) {
	return s.exported, s.err
}

func (s *stubBoardService) ImportSnapshot(_ context.Context, data []byte) (common.BoardView, error) {
	s.lastImport = data
	return s.board, s.err
}

func (s *stubBoardService) ListActivity(_ context.Context, limit int) ([]common.ActivityEntry, error) {
	s.lastLimit = limit
	return s.activity, s.err
}

func serve(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var env ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return env.Error
}

func TestHandlerGetBoard(t *testing.T) {
	svc := &stubBoardService{board: common.BoardView{Revision: 7, MaxWidgetsPerColumn: 3}}
	rec := serve(t, NewHandler(svc), http.MethodGet, "/board", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got common.BoardView
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.Revision != 7 {
		t.Fatalf("unexpected board %#v", got)
	}
	if svc.lastSource != app.SourceHTTP {
		t.Fatalf("expected http source tag, got %q", svc.lastSource)
	}
}

func TestHandlerRoutesMutations(t *testing.T) {
	svc := &stubBoardService{}
	h := NewHandler(svc)

	if rec := serve(t, h, http.MethodPost, "/widgets", `{"kind":"todo"}`); rec.Code != http.StatusCreated || svc.lastAdd.Kind != "todo" {
		t.Fatalf("add: status %d req %#v", rec.Code, svc.lastAdd)
	}
	if rec := serve(t, h, http.MethodDelete, "/widgets/w9", ""); rec.Code != http.StatusOK || svc.lastRemove != "w9" {
		t.Fatalf("remove: status %d id %q", rec.Code, svc.lastRemove)
	}
	rec := serve(t, h, http.MethodPatch, "/widgets/w2", `{"customHeight":40,"positionPreference":"bottom","settings":{"city":"Oslo"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d", rec.Code)
	}
	if svc.lastUpdate.ID != "w2" || *svc.lastUpdate.CustomHeight != 40 || *svc.lastUpdate.PositionPreference != "bottom" || svc.lastUpdate.Settings["city"] != "Oslo" {
		t.Fatalf("update: unexpected request %#v", svc.lastUpdate)
	}
	if rec := serve(t, h, http.MethodPut, "/columns/middle/width", `{"width":45}`); rec.Code != http.StatusOK || svc.lastWidth != (common.SetColumnWidthRequest{Column: "middle", Width: 45}) {
		t.Fatalf("width: status %d req %#v", rec.Code, svc.lastWidth)
	}
	if rec := serve(t, h, http.MethodPost, "/drag", `{"widgetId":"w1","targetWidgetId":"w2","below":true}`); rec.Code != http.StatusOK || !svc.lastMove.Below {
		t.Fatalf("drag: status %d req %#v", rec.Code, svc.lastMove)
	}
	if rec := serve(t, h, http.MethodPut, "/settings", `{"blur":4,"isEditing":true}`); rec.Code != http.StatusOK || *svc.lastPrefs.Blur != 4 || !*svc.lastPrefs.IsEditing {
		t.Fatalf("settings: status %d req %#v", rec.Code, svc.lastPrefs)
	}
	if rec := serve(t, h, http.MethodPost, "/import", `{"columns":{}}`); rec.Code != http.StatusOK || string(svc.lastImport) != `{"columns":{}}` {
		t.Fatalf("import: status %d body %q", rec.Code, svc.lastImport)
	}
	if rec := serve(t, h, http.MethodGet, "/activity?limit=5", ""); rec.Code != http.StatusOK || svc.lastLimit != 5 {
		t.Fatalf("activity: status %d limit %d", rec.Code, svc.lastLimit)
	}
}

func TestHandlerExportSetsDownloadHeaders(t *testing.T) {
	svc := &stubBoardService{exported: []byte("{\n  \"blur\": 10\n}\n")}
	rec := serve(t, NewHandler(svc), http.MethodGet, "/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "widgethub-config.json") {
		t.Fatalf("unexpected disposition %q", rec.Header().Get("Content-Disposition"))
	}
	if rec.Body.String() != string(svc.exported) {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestHandlerMapsErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
		code string
	}{
		{"not found", errors.Join(common.ErrNotFound, errors.New("widget not found")), http.StatusNotFound, "not_found"},
		{"conflict", errors.Join(common.ErrConflict, errors.New("capacity exceeded")), http.StatusConflict, "conflict"},
		{"invalid", errors.Join(common.ErrInvalidRequest, errors.New("bad kind")), http.StatusBadRequest, "invalid_request"},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(t, NewHandler(&stubBoardService{err: tc.err}), http.MethodPost, "/widgets", `{"kind":"time"}`)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
			if got := decodeError(t, rec); got.Code != tc.code {
				t.Fatalf("code = %q, want %q", got.Code, tc.code)
			}
		})
	}
}

func TestHandlerRejectsMalformedRequests(t *testing.T) {
	h := NewHandler(&stubBoardService{})
	cases := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"unknown field", http.MethodPost, "/widgets", `{"kind":"time","extra":1}`, http.StatusBadRequest},
		{"trailing content", http.MethodPost, "/widgets", `{"kind":"time"}{}`, http.StatusBadRequest},
		{"bad limit", http.MethodGet, "/activity?limit=abc", "", http.StatusBadRequest},
		{"wrong method", http.MethodPost, "/board", "", http.StatusMethodNotAllowed},
		{"widget method", http.MethodGet, "/widgets/w1", "", http.StatusMethodNotAllowed},
		{"unknown path", http.MethodGet, "/nope", "", http.StatusNotFound},
		{"nested widget path", http.MethodDelete, "/widgets/a/b", "", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rec := serve(t, h, tc.method, tc.target, tc.body); rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestHandlerWithoutServiceIsUnavailable(t *testing.T) {
	rec := serve(t, NewHandler(nil), http.MethodGet, "/board", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
