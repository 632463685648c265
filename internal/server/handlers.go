package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/Dainanahan/drugtree/internal/server/components"
	"github.com/Dainanahan/drugtree/pkg/core"
)

// SelectSignals are the datastar signals a selection event carries.
// Empty values place no constraint.
type SelectSignals struct {
	Group        string `json:"group"`
	State        string `json:"state"`
	CreatedYear  string `json:"created_year"`
	CreatedMonth string `json:"created_month"`
	Page         int    `json:"page"`
}

// Selection converts the signals into a selection.
func (s SelectSignals) Selection() (core.Selection, error) {
	return core.ParseSelection(map[string]string{
		string(core.LevelGroup):        s.Group,
		string(core.LevelState):        s.State,
		string(core.LevelCreatedYear):  s.CreatedYear,
		string(core.LevelCreatedMonth): s.CreatedMonth,
	})
}

// ViewSignals are patched back to the client after every event.
type ViewSignals struct {
	Seq   uint64 `json:"seq"`
	Page  int    `json:"page"`
	Pages int    `json:"pages"`
	Total int    `json:"total"`
}

// rowsResponse is the JSON form of one page of a session's view.
type rowsResponse struct {
	Seq       uint64            `json:"seq"`
	Selection map[string]string `json:"selection"`
	Page      core.Page         `json:"page"`
}

func (s *Server) routes(r chi.Router) {
	r.Get("/", s.handleIndex)
	r.Route("/api", func(r chi.Router) {
		r.Get("/hierarchy", s.handleHierarchy)
		r.Get("/rows", s.handleRows)
		r.Post("/select", s.handleSelect)
		r.Post("/page", s.handlePage)
		r.Get("/updates", s.handleUpdates)
		r.Post("/reload", s.handleReload)
	})
}

// handleIndex renders the full page with the tree and the current page of
// rows.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	nodes, err := sess.browser.Hierarchy(s.levels)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	cur := sess.browser.Current()
	levels := make([]string, len(s.levels))
	for i, l := range s.levels {
		levels[i] = string(l)
	}
	page := components.Index(components.IndexProps{
		Total:  sess.browser.Composed().Len(),
		Levels: strings.Join(levels, " / "),
		Nodes:  nodes,
		Rows:   components.NewRowsProps(cur.Selection, cur.View.Page(sess.currentPage(), s.pageSize)),
	})
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(r.Context(), w); err != nil {
		s.logger.Debug("index render aborted", "error", err)
	}
}

// handleHierarchy returns the tree over the composed view as JSON. The
// optional levels parameter overrides the configured level order.
func (s *Server) handleHierarchy(w http.ResponseWriter, r *http.Request) {
	levels := s.levels
	if raw := r.URL.Query().Get("levels"); raw != "" {
		parsed, err := core.ParseLevels(strings.Split(raw, ","))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		levels = parsed
	}

	sess, err := s.session(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	nodes, err := sess.browser.Hierarchy(levels)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, nodes)
}

// handleRows returns one page of the session's filtered view as JSON.
func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	page := queryInt(q.Get("page"), sess.currentPage())
	size := queryInt(q.Get("size"), s.pageSize)

	cur := sess.browser.Current()
	resp := rowsResponse{
		Seq:       cur.Seq,
		Selection: make(map[string]string, len(cur.Selection)),
		Page:      cur.View.Page(page, size),
	}
	for l, v := range cur.Selection {
		resp.Selection[string(l)] = v
	}
	writeJSON(w, resp)
}

// handleSelect applies one selection event and patches the table.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	// Read signals BEFORE creating SSE (SSE consumes the request body)
	var signals SelectSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		http.Error(w, "failed to read signals: "+err.Error(), http.StatusBadRequest)
		return
	}
	sel, err := signals.Selection()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sess, err := s.session(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	sess.browser.Select(sel)
	sess.setPage(max(signals.Page, 1))

	sse := datastar.NewSSE(w, r)
	if err := s.sendView(sse, sess); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// handlePage changes the page without changing the selection.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	var signals SelectSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		http.Error(w, "failed to read signals: "+err.Error(), http.StatusBadRequest)
		return
	}

	sess, err := s.session(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	sess.setPage(max(signals.Page, 1))

	sse := datastar.NewSSE(w, r)
	if err := s.sendView(sse, sess); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// handleUpdates is the long-lived SSE endpoint. It pushes the session's
// view again whenever the registry is reloaded.
func (s *Server) handleUpdates(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	sse := datastar.NewSSE(w, r)

	updates := s.notifier.Subscribe()
	defer s.notifier.Unsubscribe(updates)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			if err := s.sendView(sse, sess); err != nil {
				_ = sse.ConsoleError(err)
				// Don't return - keep trying on next update
			}
		}
	}
}

// handleReload recomposes the registry on demand.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.Reload(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// sendView patches the rows fragment and the view signals for the
// session's latest published result.
func (s *Server) sendView(sse *datastar.ServerSentEventGenerator, sess *session) error {
	cur := sess.browser.Current()
	page := cur.View.Page(sess.currentPage(), s.pageSize)
	sess.setPage(page.Number)

	if err := sse.PatchElementTempl(components.Rows(components.NewRowsProps(cur.Selection, page))); err != nil {
		return err
	}
	return sse.MarshalAndPatchSignals(ViewSignals{
		Seq:   cur.Seq,
		Page:  page.Number,
		Pages: page.Pages,
		Total: page.Total,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func queryInt(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}
