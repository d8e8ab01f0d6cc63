package http

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"room8/internal/core"
	"room8/internal/log"
)

type fridgeItemRequest struct {
	Type   string `json:"type"`
	Text   string `json:"text"`
	Author string `json:"author"`
	Color  string `json:"color"`
	Emoji  string `json:"emoji"`
}

type calendarItemRequest struct {
	Title  string       `json:"title"`
	Type   string       `json:"type"`
	Date   string       `json:"date"`
	Notes  string       `json:"notes"`
	Amount *amountField `json:"amount"`
}

func (s *Server) handleListFridge(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(nonNil(s.household.FridgeItems())).Write(w)
}

// handleAddFridgeItem pins a text note or a sticker. Drawings and photos
// are rejected.
func (s *Server) handleAddFridgeItem(w http.ResponseWriter, r *http.Request) {
	var req fridgeItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, log.OpCreate)
		return
	}
	typ, err := core.ParseFridgeItemType(req.Type)
	if err != nil {
		writeError(w, r, err, log.OpCreate)
		return
	}

	var item core.FridgeItem
	switch typ {
	case core.FridgeTextNote:
		var color core.StickyColor
		if color, err = core.ParseStickyColor(req.Color); err != nil {
			writeError(w, r, err, log.OpCreate)
			return
		}
		item, err = s.household.AddTextNote(r.Context(), sanitizeInput(req.Text), sanitizeInput(req.Author), color)
	case core.FridgeSticker:
		item, err = s.household.AddSticker(r.Context(), sanitizeInput(req.Emoji))
	}
	if err != nil {
		writeError(w, r, err, log.OpCreate)
		return
	}
	Created(item).Write(w)
}

func (s *Server) handleMoveFridgeItem(w http.ResponseWriter, r *http.Request) {
	var pos core.Position
	if err := decodeJSON(w, r, &pos); err != nil {
		writeError(w, r, err, log.OpUpdate)
		return
	}

	item, err := s.household.MoveFridgeItem(r.Context(), r.PathValue("id"), pos)
	if err != nil {
		writeError(w, r, err, log.OpUpdate)
		return
	}
	NewJSONResponse().Data(item).Write(w)
}

func (s *Server) handleDeleteFridgeItem(w http.ResponseWriter, r *http.Request) {
	if err := s.household.DeleteFridgeItem(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err, log.OpDelete)
		return
	}
	NoContent().Write(w)
}

// handleListCalendarItems returns items in date order.
func (s *Server) handleListCalendarItems(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(nonNil(s.household.CalendarItems())).Write(w)
}

func (s *Server) handleAddCalendarItem(w http.ResponseWriter, r *http.Request) {
	var req calendarItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, log.OpCreate)
		return
	}
	typ, err := core.ParseCalendarItemType(req.Type)
	if err != nil {
		writeError(w, r, err, log.OpCreate)
		return
	}
	if strings.TrimSpace(req.Date) == "" {
		writeError(w, r, badRequest("date is required"), log.OpCreate)
		return
	}
	date, err := parseTimestamp("date", req.Date, s.household.Scheduler().Location())
	if err != nil {
		writeError(w, r, err, log.OpCreate)
		return
	}

	var amount *decimal.Decimal
	if req.Amount != nil {
		a, err := req.Amount.Decimal()
		if err != nil {
			writeError(w, r, err, log.OpCreate)
			return
		}
		amount = &a
	}

	item, err := s.household.AddCalendarItem(r.Context(), sanitizeInput(req.Title), typ, date, sanitizeInput(req.Notes), amount)
	if err != nil {
		writeError(w, r, err, log.OpCreate)
		return
	}
	Created(item).Write(w)
}

func (s *Server) handleDeleteCalendarItem(w http.ResponseWriter, r *http.Request) {
	if err := s.household.DeleteCalendarItem(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err, log.OpDelete)
		return
	}
	NoContent().Write(w)
}
