package train

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// SaveCurves writes the train/validation bpd-vs-epoch curves to a PNG.
func SaveCurves(name string, history *History) error {
	p := plot.New()
	p.Title.Text = "bits per dimension"
	p.X.Label.Text = "epoch"
	p.Y.Label.Text = "bpd"

	trainLine, err := plotter.NewLine(curve(history.Train))
	if err != nil {
		return err
	}
	p.Add(trainLine)
	p.Legend.Add("train bpd", trainLine)

	valLine, err := plotter.NewLine(curve(history.Val))
	if err != nil {
		return err
	}
	valLine.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(valLine)
	p.Legend.Add("validation bpd", valLine)

	return p.Save(8*vg.Inch, 4*vg.Inch, name)
}

func curve(values []float64) plotter.XYs {
	xys := make(plotter.XYs, len(values))
	for i, v := range values {
		xys[i].X = float64(i)
		xys[i].Y = v
	}
	return xys
}
