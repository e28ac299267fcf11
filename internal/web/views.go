package web

import (
	"net/http"
	"time"

	"clubcal/internal/calendar"
	"clubcal/internal/model"
)

// eventDTO is the JSON view of a calendar event.
type eventDTO struct {
	ID          string         `json:"id"`
	SourceID    string         `json:"source_id"`
	InstanceKey string         `json:"instance_key,omitempty"`
	Title       string         `json:"title"`
	Location    string         `json:"location,omitempty"`
	AllDay      bool           `json:"all_day"`
	Start       time.Time      `json:"start"`
	End         time.Time      `json:"end"`
	Category    model.Category `json:"category"`
	Style       model.Style    `json:"style"`
	Detail      model.Detail   `json:"detail"`
}

func toEventDTOs(events []model.Event, loc *time.Location) []eventDTO {
	out := make([]eventDTO, 0, len(events))
	for _, ev := range events {
		out = append(out, eventDTO{
			ID:          ev.ID,
			SourceID:    ev.SourceID,
			InstanceKey: ev.InstanceKey,
			Title:       ev.Title,
			Location:    ev.Location,
			AllDay:      ev.AllDay,
			Start:       ev.Start.In(loc),
			End:         ev.End.In(loc),
			Category:    ev.Category(),
			Style:       ev.Category().Style(),
			Detail:      ev.Detail,
		})
	}
	return out
}

type eventsResponse struct {
	Events     []eventDTO        `json:"events"`
	UpdatedAt  time.Time         `json:"updated_at"`
	Generation uint64            `json:"generation"`
	Errors     map[string]string `json:"errors,omitempty"`
	Timezone   string            `json:"timezone"`
}

// handleEvents returns the current snapshot, optionally limited to one day.
//
// GET /api/events?day=2024-03-10
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	events := snap.Events

	if q := r.URL.Query().Get("day"); q != "" {
		day, err := calendar.ParseDate(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		events = calendar.SortByStart(calendar.EventsForDay(events, day, s.matchLoc))
	}

	writeJSON(w, http.StatusOK, eventsResponse{
		Events:     toEventDTOs(events, s.loc),
		UpdatedAt:  snap.UpdatedAt,
		Generation: snap.Generation,
		Errors:     snap.Errors,
		Timezone:   s.loc.String(),
	})
}

type cellDTO struct {
	Date           calendar.Date `json:"date"`
	IsCurrentMonth bool          `json:"is_current_month"`
	IsToday        bool          `json:"is_today"`
	Events         []eventDTO    `json:"events"`
}

type monthResponse struct {
	Month     string        `json:"month"`
	Today     calendar.Date `json:"today"`
	WeekStart string        `json:"week_start"`
	Timezone  string        `json:"timezone"`
	Weeks     [][]cellDTO   `json:"weeks"`
}

// monthView builds the grid for the month containing ref with bound events.
func (s *Server) monthView(ref calendar.Date) monthResponse {
	today := s.today()
	grid := calendar.BuildMonthGridFrom(ref, today, s.cfg.FirstWeekday())
	bound := calendar.BindMonth(grid, s.store.Snapshot().Events, s.matchLoc)

	cells := make([]cellDTO, 0, len(bound))
	for _, c := range bound {
		cells = append(cells, cellDTO{
			Date:           c.Date,
			IsCurrentMonth: c.IsCurrentMonth,
			IsToday:        c.IsToday,
			Events:         toEventDTOs(calendar.SortByStart(c.Events), s.loc),
		})
	}

	return monthResponse{
		Month:     ref.String()[:7],
		Today:     today,
		WeekStart: s.cfg.WeekStart,
		Timezone:  s.loc.String(),
		Weeks:     calendar.Weeks(cells),
	}
}

// monthParam reads ?month=YYYY-MM, defaulting to the current month.
func (s *Server) monthParam(r *http.Request) (calendar.Date, error) {
	q := r.URL.Query().Get("month")
	if q == "" {
		return s.today().FirstOfMonth(), nil
	}
	return calendar.ParseMonth(q)
}

// dateParam reads ?date=YYYY-MM-DD, defaulting to today.
func (s *Server) dateParam(r *http.Request) (calendar.Date, error) {
	q := r.URL.Query().Get("date")
	if q == "" {
		return s.today(), nil
	}
	return calendar.ParseDate(q)
}

// GET /api/month?month=2024-02
func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	ref, err := s.monthParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.monthView(ref))
}

type placementDTO struct {
	Hour     int      `json:"hour"`
	Top      float64  `json:"top"`
	Height   float64  `json:"height"`
	TopPx    float64  `json:"top_px"`
	HeightPx float64  `json:"height_px"`
	Visible  bool     `json:"visible"`
	Event    eventDTO `json:"event"`
}

type columnDTO struct {
	Date       calendar.Date  `json:"date"`
	IsToday    bool           `json:"is_today"`
	Placements []placementDTO `json:"placements"`
}

type hoursResponse struct {
	RowHeightPx  int         `json:"row_height_px"`
	DayStartHour int         `json:"day_start_hour"`
	DayEndHour   int         `json:"day_end_hour"`
	Timezone     string      `json:"timezone"`
	Columns      []columnDTO `json:"columns"`
}

func (s *Server) hoursView(dates []calendar.Date) hoursResponse {
	opts := s.cfg.LayoutOptions()
	layout := s.cfg.Layout
	today := s.today()
	cols := calendar.LayoutWeek(s.store.Snapshot().Events, dates, s.matchLoc, opts)

	out := hoursResponse{
		RowHeightPx:  opts.RowHeightPx,
		DayStartHour: layout.DayStartHour,
		DayEndHour:   layout.DayEndHour,
		Timezone:     s.loc.String(),
		Columns:      make([]columnDTO, 0, len(dates)),
	}
	for i, d := range dates {
		col := columnDTO{Date: d, IsToday: d == today, Placements: make([]placementDTO, 0, len(cols[i]))}
		for _, p := range cols[i] {
			topPx, heightPx := p.Block.Pixels(opts.RowHeightPx)
			col.Placements = append(col.Placements, placementDTO{
				Hour:     p.Hour,
				Top:      p.Block.Top,
				Height:   p.Block.Height,
				TopPx:    topPx,
				HeightPx: heightPx,
				Visible:  p.Visible(layout.DayStartHour, layout.DayEndHour),
				Event:    toEventDTOs([]model.Event{p.Event}, s.loc)[0],
			})
		}
		out.Columns = append(out.Columns, col)
	}
	return out
}

// GET /api/week?date=2024-03-13
func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	d, err := s.dateParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.hoursView(calendar.WeekOf(d, s.cfg.FirstWeekday())))
}

// GET /api/day?date=2024-03-10
func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	d, err := s.dateParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.hoursView([]calendar.Date{d}))
}

// weekdayNames returns column headers starting at the configured weekday.
func weekdayNames(start time.Weekday) []string {
	out := make([]string, calendar.DaysPerWeek)
	for i := range out {
		out[i] = time.Weekday((int(start) + i) % calendar.DaysPerWeek).String()[:3]
	}
	return out
}

type pageData struct {
	Title    string
	Weekdays []string
	View     monthResponse
}

// handleCalendarPage renders the month grid as HTML. The root element
// carries data-ready="true" so headless capture knows it is complete.
//
// GET /calendar?month=2024-02
func (s *Server) handleCalendarPage(w http.ResponseWriter, r *http.Request) {
	ref, err := s.monthParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data := pageData{
		Title:    ref.In(time.UTC).Format("January 2006"),
		Weekdays: weekdayNames(s.cfg.FirstWeekday()),
		View:     s.monthView(ref),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplates.ExecuteTemplate(w, "month.html", data); err != nil {
		appLog.Error("render calendar page failed", err)
	}
}
