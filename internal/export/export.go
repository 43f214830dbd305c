// Package export turns recorded curve points into CSV/JSON output and
// derived columns (distances, turning angles, resampled curves).
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
)

// XYPoint is one exported data point in calibrated axis units.
type XYPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ExtraColumn is an optional derived column. A nil value marks a row where
// the quantity is undefined (e.g. the first point has no distance).
type ExtraColumn struct {
	Header string     `json:"header"`
	Values []*float64 `json:"values"`
}

// Payload is everything an exporter writes.
type Payload struct {
	XHeader string        `json:"x_header"`
	YHeader string        `json:"y_header"`
	Points  []XYPoint     `json:"points"`
	Extras  []ExtraColumn `json:"extras,omitempty"`
}

// SequentialDistances computes the distance from each point to its
// predecessor. The first entry is nil.
func SequentialDistances(points []XYPoint) []*float64 {
	out := make([]*float64, len(points))
	for i := 1; i < len(points); i++ {
		dx := points[i].X - points[i-1].X
		dy := points[i].Y - points[i-1].Y
		d := math.Sqrt(dx*dx + dy*dy)
		out[i] = &d
	}
	return out
}

// TurningAngles computes the signed direction change (degrees) at each
// interior vertex. The first and last entries are nil, as are vertices with
// a degenerate adjacent segment.
func TurningAngles(points []XYPoint) []*float64 {
	out := make([]*float64, len(points))
	for i := 1; i < len(points)-1; i++ {
		ax := points[i].X - points[i-1].X
		ay := points[i].Y - points[i-1].Y
		bx := points[i+1].X - points[i].X
		by := points[i+1].Y - points[i].Y
		if (ax == 0 && ay == 0) || (bx == 0 && by == 0) {
			continue
		}
		angle := (math.Atan2(by, bx) - math.Atan2(ay, ax)) * 180 / math.Pi
		if angle > 180 {
			angle -= 360
		} else if angle < -180 {
			angle += 360
		}
		v := angle
		out[i] = &v
	}
	return out
}

// WriteCSV writes the payload as a CSV file with one header row.
func WriteCSV(path string, payload *Payload) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	header := []string{payload.XHeader, payload.YHeader}
	for _, extra := range payload.Extras {
		header = append(header, extra.Header)
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i, p := range payload.Points {
		row := []string{formatNumber(p.X), formatNumber(p.Y)}
		for _, extra := range payload.Extras {
			if i < len(extra.Values) && extra.Values[i] != nil {
				row = append(row, formatNumber(*extra.Values[i]))
			} else {
				row = append(row, "")
			}
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// WriteJSON writes the payload as an indented JSON document.
func WriteJSON(path string, payload *Payload) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal export payload: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	return nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
