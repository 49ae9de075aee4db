package web

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/onboard/internal/inventory"
	"github.com/erazemk/onboard/internal/model"
	"github.com/erazemk/onboard/internal/store"
)

// manualForm holds the values typed into the manual-add panel.
type manualForm struct {
	Type     string
	Model    string
	Info     string
	Quantity int
	Error    string
}

type indexData struct {
	PageData
	Machines    []model.Machine
	Total       int
	EditingID   string
	Editing     *model.Machine
	ShowAddForm bool
	Manual      manualForm
	Industries  []string
	Industry    string
	Layouts     []string
}

// IndexPage handles GET /. A visitor without a session sees the empty form.
func (s *Server) IndexPage(w http.ResponseWriter, r *http.Request) {
	id := SessionID(r.Context())

	var state inventory.State
	if id == "" {
		s.renderIndex(w, r, http.StatusOK, state, nil, manualForm{Quantity: 1})
		return
	}

	sess, err := store.GetSession(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to load session", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if sess != nil {
		state = sess.State
	}

	flashes, err := store.PopFlash(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to pop flash", "error", err)
	}

	s.renderIndex(w, r, http.StatusOK, state, flashes, manualForm{Quantity: 1})
}

func (s *Server) renderIndex(w http.ResponseWriter, r *http.Request, status int, state inventory.State, flashes []store.Flash, manual manualForm) {
	industry := r.URL.Query().Get("industry")
	if !model.ValidIndustry(industry) {
		industry = model.DefaultIndustry
	}

	data := &indexData{
		PageData:    PageData{Title: "Machine Setup", Flashes: flashes},
		Machines:    state.Machines,
		Total:       s.machineTotal(state.Machines),
		EditingID:   state.EditingID,
		ShowAddForm: state.ShowAddForm,
		Manual:      manual,
		Industries:  model.Industries,
		Industry:    industry,
		Layouts:     model.LayoutChoices,
	}
	if m, ok := state.Editing(); ok {
		data.Editing = &m
	}

	s.Templates.Render(w, status, "index.html", data)
}

// machineTotal counts machines the way the summary will.
func (s *Server) machineTotal(machines []model.Machine) int {
	if s.CountMode == model.CountRecords {
		return len(machines)
	}
	return model.TotalQuantity(machines)
}
