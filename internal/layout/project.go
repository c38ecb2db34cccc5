package layout

// Placement is the final geometry for one timed item, expressed as
// percentages of the day column so any rendering surface can scale it
// without knowing pixel sizes.
type Placement struct {
	ID           string `json:"id"`
	Column       int    `json:"column"`
	TotalColumns int    `json:"total_columns"`

	TopPercent    float64 `json:"top_percent"`
	LeftPercent   float64 `json:"left_percent"`
	WidthPercent  float64 `json:"width_percent"`
	HeightPercent float64 `json:"height_percent"`
}

// Project maps a packed interval onto the 24-hour axis. totalColumns is the
// column count of the interval's whole overlap group. Height is floored at
// Options.MinHeightPercent so one-minute items remain visible.
func Project(p Packed, totalColumns int, opts Options) Placement {
	opts = opts.normalized()
	if totalColumns < 1 {
		totalColumns = 1
	}

	top := float64(p.Start) / MinutesPerDay * 100
	height := float64(p.End-p.Start) / MinutesPerDay * 100
	if height < opts.MinHeightPercent {
		height = opts.MinHeightPercent
	}
	width := 100 / float64(totalColumns)
	left := float64(p.Column) * width

	return Placement{
		ID:            p.ID,
		Column:        p.Column,
		TotalColumns:  totalColumns,
		TopPercent:    top,
		LeftPercent:   left,
		WidthPercent:  width,
		HeightPercent: height,
	}
}
