package eval

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// Weights is the coefficient vector of the standard evaluator. JSON field
// names match the weights.json files the bot has always read; fields
// missing from a file keep their Default value.
type Weights struct {
	BackToBack      int     `json:"back_to_back"`
	Bumpiness       int     `json:"bumpiness"`
	BumpinessSq     int     `json:"bumpiness_sq"`
	RowTransitions  int     `json:"row_transitions"`
	Height          int     `json:"height"`
	TopHalf         int     `json:"top_half"`
	TopQuarter      int     `json:"top_quarter"`
	Jeopardy        int     `json:"jeopardy"`
	CavityCells     int     `json:"cavity_cells"`
	CavityCellsSq   int     `json:"cavity_cells_sq"`
	OverhangCells   int     `json:"overhang_cells"`
	OverhangCellsSq int     `json:"overhang_cells_sq"`
	CoveredCells    int     `json:"covered_cells"`
	CoveredCellsSq  int     `json:"covered_cells_sq"`
	Tslot           [4]int  `json:"tslot"`
	WellDepth       int     `json:"well_depth"`
	MaxWellDepth    int     `json:"max_well_depth"`
	WellColumn      [10]int `json:"well_column"`

	B2BClear     int `json:"b2b_clear"`
	Clear1       int `json:"clear1"`
	Clear2       int `json:"clear2"`
	Clear3       int `json:"clear3"`
	Clear4       int `json:"clear4"`
	Tspin1       int `json:"tspin1"`
	Tspin2       int `json:"tspin2"`
	Tspin3       int `json:"tspin3"`
	MiniTspin1   int `json:"mini_tspin1"`
	MiniTspin2   int `json:"mini_tspin2"`
	PerfectClear int `json:"perfect_clear"`
	ComboGarbage int `json:"combo_garbage"`
	MoveTime     int `json:"move_time"`
	WastedT      int `json:"wasted_t"`

	UseBag        bool    `json:"use_bag"`
	TimedJeopardy bool    `json:"timed_jeopardy"`
	StackPCDamage bool    `json:"stack_pc_damage"`
	SubName       *string `json:"sub_name"`
}

// Default returns the tuned default preset.
func Default() Weights {
	return Weights{
		BackToBack:      52,
		Bumpiness:       -24,
		BumpinessSq:     -7,
		RowTransitions:  -5,
		Height:          -39,
		TopHalf:         -150,
		TopQuarter:      -511,
		Jeopardy:        -11,
		CavityCells:     -173,
		CavityCellsSq:   -3,
		OverhangCells:   -34,
		OverhangCellsSq: -1,
		CoveredCells:    -17,
		CoveredCellsSq:  -1,
		Tslot:           [4]int{8, 148, 192, 407},
		WellDepth:       57,
		MaxWellDepth:    17,
		WellColumn:      [10]int{20, 23, 20, 50, 59, 21, 59, 10, -10, 24},

		MoveTime:     -3,
		WastedT:      -152,
		B2BClear:     104,
		Clear1:       -143,
		Clear2:       -100,
		Clear3:       -58,
		Clear4:       390,
		Tspin1:       121,
		Tspin2:       410,
		Tspin3:       602,
		MiniTspin1:   -158,
		MiniTspin2:   -93,
		PerfectClear: 999,
		ComboGarbage: 150,

		UseBag: true,
	}
}

// Fast returns the preset tuned for short decision budgets.
func Fast() Weights {
	return Weights{
		BackToBack:      10,
		Bumpiness:       -7,
		BumpinessSq:     -28,
		RowTransitions:  -5,
		Height:          -46,
		TopHalf:         -126,
		TopQuarter:      -493,
		Jeopardy:        -11,
		CavityCells:     -176,
		CavityCellsSq:   -6,
		OverhangCells:   -47,
		OverhangCellsSq: -9,
		CoveredCells:    -25,
		CoveredCellsSq:  1,
		Tslot:           [4]int{0, 150, 296, 207},
		WellDepth:       158,
		MaxWellDepth:    -2,
		WellColumn:      [10]int{31, 16, -41, 37, 49, 30, 56, 48, -27, 22},

		B2BClear:     74,
		Clear1:       -122,
		Clear2:       -174,
		Clear3:       11,
		Clear4:       424,
		Tspin1:       131,
		Tspin2:       392,
		Tspin3:       628,
		MiniTspin1:   -188,
		MiniTspin2:   -682,
		PerfectClear: 991,
		ComboGarbage: 272,
		MoveTime:     -1,
		WastedT:      -147,

		UseBag: true,
	}
}

var presets = map[string]func() Weights{
	"default": Default,
	"fast":    Fast,
}

// Preset returns a named preset.
func Preset(name string) (Weights, error) {
	fn, ok := presets[name]
	if !ok {
		return Weights{}, fmt.Errorf("unknown preset %q", name)
	}
	return fn(), nil
}

// PresetNames lists the available presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseWeights decodes a JSON weight vector over the Default preset.
func ParseWeights(data []byte) (Weights, error) {
	return ParseWeightsOver(Default(), data)
}

// ParseWeightsOver decodes a JSON weight vector, keeping base values for
// every field the document leaves out.
func ParseWeightsOver(base Weights, data []byte) (Weights, error) {
	w := base
	if err := json.Unmarshal(data, &w); err != nil {
		return Weights{}, fmt.Errorf("decode weights: %w", err)
	}
	return w, nil
}

// ReadWeights decodes a JSON weight vector from r over the Default preset.
func ReadWeights(r io.Reader) (Weights, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Weights{}, fmt.Errorf("read weights: %w", err)
	}
	return ParseWeights(data)
}

// Name returns the sub-preset label, or "" when none is set.
func (w Weights) Name() string {
	if w.SubName == nil {
		return ""
	}
	return *w.SubName
}
