package results

// Matrix is the aggregated depth × length score matrix. Axes are sorted;
// Cells holds the mean score for every cell that has at least one scored
// trial. Missing cells (all trials failed or unscored) are simply absent.
type Matrix struct {
	Lengths []int            `json:"context_lengths"`
	Depths  []float64        `json:"depth_percents"`
	Cells   map[Cell]float64 `json:"-"`
}

// Mean returns the mean score for the cell and whether the cell is present.
func (m Matrix) Mean(cell Cell) (float64, bool) {
	v, ok := m.Cells[cell]
	return v, ok
}

// rows flattens the matrix for serialisation: one entry per present cell.
func (m Matrix) rows() []matrixRow {
	out := make([]matrixRow, 0, len(m.Cells))
	for _, depth := range m.Depths {
		for _, length := range m.Lengths {
			if v, ok := m.Cells[Cell{Length: length, Depth: depth}]; ok {
				out = append(out, matrixRow{Length: length, Depth: depth, Score: v})
			}
		}
	}
	return out
}

type matrixRow struct {
	Length int     `json:"context_length"`
	Depth  float64 `json:"depth_percent"`
	Score  float64 `json:"score"`
}
