package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/san-kum/ratectl/internal/ratecontrol"
)

var axisNames = [3]string{"roll", "pitch", "yaw"}

// vectorColumns are written per axis, in this order.
var vectorColumns = []string{"sp", "rate", "torque", "p", "i", "d", "f_hat", "sp_curv"}

func telemetryHeader() []string {
	header := []string{"ts_us", "law", "landed", "dt", "window_span"}
	for _, col := range vectorColumns {
		for _, axis := range axisNames {
			header = append(header, col+"_"+axis)
		}
	}
	return header
}

func vectors(d *ratecontrol.Diagnostics) []*ratecontrol.Vector3 {
	return []*ratecontrol.Vector3{
		&d.RateSetpoint, &d.Rate, &d.Torque, &d.P, &d.I, &d.D, &d.FHat, &d.SetpointCurvature,
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeTelemetry(path string, records []ratecontrol.Diagnostics) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	header := telemetryHeader()
	if err := w.Write(header); err != nil {
		return err
	}

	row := make([]string, 0, len(header))
	for i := range records {
		d := &records[i]
		row = append(row[:0],
			strconv.FormatUint(d.Timestamp, 10),
			d.Law.String(),
			strconv.FormatBool(d.Landed),
			formatFloat(d.Dt),
			formatFloat(d.WindowSpan),
		)
		for _, v := range vectors(d) {
			for _, x := range v {
				row = append(row, formatFloat(x))
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func parseRow(row []string) (ratecontrol.Diagnostics, error) {
	var d ratecontrol.Diagnostics
	want := 5 + 3*len(vectorColumns)
	if len(row) != want {
		return d, fmt.Errorf("expected %d fields, got %d", want, len(row))
	}

	var err error
	if d.Timestamp, err = strconv.ParseUint(row[0], 10, 64); err != nil {
		return d, err
	}
	law, ok := ratecontrol.ParseLaw(row[1])
	if !ok {
		return d, fmt.Errorf("unknown law %q", row[1])
	}
	d.Law = law
	if d.Landed, err = strconv.ParseBool(row[2]); err != nil {
		return d, err
	}
	if d.Dt, err = strconv.ParseFloat(row[3], 64); err != nil {
		return d, err
	}
	if d.WindowSpan, err = strconv.ParseFloat(row[4], 64); err != nil {
		return d, err
	}

	col := 5
	for _, v := range vectors(&d) {
		for axis := range v {
			if v[axis], err = strconv.ParseFloat(row[col], 64); err != nil {
				return d, err
			}
			col++
		}
	}
	return d, nil
}
