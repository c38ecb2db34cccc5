package web

import (
	_ "embed"
	"fmt"
	"html/template"
	"net/http"

	appLog "daygrid/internal/log"
	"daygrid/internal/model"
)

//go:embed view.html
var viewHTML string

var viewTmpl = template.Must(template.New("day").Parse(viewHTML))

// hourMark labels one gridline on the 24-hour axis. Top is in pixels on
// the fixed 1440px grid, one per minute.
type hourMark struct {
	Top   int
	Label string
}

// viewBlock is one positioned block. The style string is resolved here so
// the template stays free of arithmetic.
type viewBlock struct {
	Title string
	Kind  model.Kind
	Start string
	Style template.CSS
}

type viewData struct {
	Heading  string
	Timezone string
	AllDay   []model.Item
	Blocks   []viewBlock
	Hours    []hourMark
}

// handleDayView renders the server-side day page that browsers and the
// capture pipeline both consume. Layout happens entirely on the server,
// so the page can mark itself data-ready="true" in the delivered HTML.
//
// GET /view/day?date=2026-08-17
func (s *Server) handleDayView(w http.ResponseWriter, r *http.Request) {
	date, err := s.queryDate(r.URL.Query(), "date")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res := s.agenda.Day(date)

	blocks := make([]viewBlock, 0, len(res.Timed))
	for _, b := range res.Timed {
		vb := viewBlock{
			Title: b.Item.Title,
			Kind:  b.Item.Kind,
			Style: template.CSS(fmt.Sprintf(
				"top:%.4f%%;left:%.4f%%;width:%.4f%%;height:%.4f%%",
				b.TopPercent, b.LeftPercent, b.WidthPercent, b.HeightPercent)),
		}
		if b.Item.Time != nil {
			vb.Start = b.Item.Time.String()
		}
		blocks = append(blocks, vb)
	}

	hours := make([]hourMark, 0, 24)
	for h := 0; h < 24; h++ {
		hours = append(hours, hourMark{Top: h * 60, Label: fmt.Sprintf("%02d:00", h)})
	}

	data := viewData{
		Heading:  date.Time(s.agenda.Location()).Format("Monday, 2 January 2006"),
		Timezone: s.agenda.Location().String(),
		AllDay:   res.AllDay,
		Blocks:   blocks,
		Hours:    hours,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := viewTmpl.Execute(w, data); err != nil {
		appLog.Error("day view render failed", err)
	}
}
