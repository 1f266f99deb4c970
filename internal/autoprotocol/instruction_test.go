package autoprotocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	doc := []byte(`{
		"refs": {
			"sample_plate": {"new": "96-flat", "store": {"where": "cold_4"}},
			"bacteria": {"id": "ct123", "discard": true}
		},
		"instructions": [
			{"op": "cover", "object": "sample_plate", "lid": "universal"},
			{"op": "pipette", "groups": [
				{"transfer": [
					{"from": "bacteria/0", "to": "sample_plate/A1", "volume": "5:microliter"}
				]}
			]},
			{"op": "incubate", "object": "sample_plate", "where": "warm_37",
			 "duration": "16:hour", "shaking": true}
		]
	}`)

	p, err := Parse(doc)
	require.NoError(t, err)
	require.Len(t, p.Instructions, 3)
	assert.Len(t, p.Refs, 2)
	assert.Equal(t, "ct123", p.Refs["bacteria"].ID)
	assert.True(t, p.Refs["bacteria"].Discard)

	cover, ok := p.Instructions[0].(*Cover)
	require.True(t, ok)
	assert.Equal(t, "universal", cover.Lid)

	pip, ok := p.Instructions[1].(*Pipette)
	require.True(t, ok)
	require.Len(t, pip.Groups, 1)
	require.Len(t, pip.Groups[0].Transfer, 1)
	assert.Equal(t, Unit("5:microliter"), pip.Groups[0].Transfer[0].Volume)

	inc, ok := p.Instructions[2].(*Incubate)
	require.True(t, ok)
	assert.True(t, inc.Shaking)
	assert.Equal(t, "warm_37", inc.Where)
}

func TestParseRejectsUnknownOp(t *testing.T) {
	doc := []byte(`{
		"instructions": [
			{"op": "cover", "object": "p", "lid": "standard"},
			{"op": "levitate", "object": "p"}
		]
	}`)

	p, err := Parse(doc)
	assert.Nil(t, p)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedInstruction)
	assert.Contains(t, err.Error(), "levitate")
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"dispense", `{"op": "dispense", "object": "p", "reagent": "lb", "columns": [{"column": 0, "volume": "50:microliter"}]}`, "dispense"},
		{"provision", `{"op": "provision", "resource_id": "rs17gmh5wafm5p", "to": [{"well": "p/0", "volume": "10:microliter"}]}`, "provision"},
		{"spin", `{"op": "spin", "object": "p", "acceleration": "700:g", "duration": "3:minute"}`, "spin"},
		{"thermocycle", `{"op": "thermocycle", "object": "p", "groups": [{"cycles": 30}]}`, "thermocycle"},
		{"absorbance", `{"op": "absorbance", "object": "p", "wells": ["A1"], "wavelength": "600:nanometer"}`, "absorbance"},
		{"oligosynthesize", `{"op": "oligosynthesize", "oligos": [{"sequence": "ATCG", "destination": "p/A1"}]}`, "oligosynthesize"},
		{"measure_mass", `{"op": "measure_mass", "object": ["p1", "p2"]}`, "measure_mass"},
		{"autopick", `{"op": "autopick", "groups": [{"from": ["agar/A1"], "to": ["plate/A1"]}], "dataref": "picks"}`, "autopick"},
		{"stamp", `{"op": "stamp", "groups": [{"transfer": [{"from": "src/A1", "to": "dst/A1", "volume": "10:microliter"}], "shape": {"rows": 8, "columns": 12}}]}`, "stamp"},
		{"gel_purify", `{"op": "gel_purify", "matrix": "agarose(8,0.8%)", "extract": [{"band_size_range": {"min_bp": 0, "max_bp": 10}}]}`, "gel_purify"},
		{"illumina_sequence", `{"op": "illumina_sequence", "lanes": [{"object": "plate/A1"}], "library_size": 250}`, "illumina_sequence"},
		{"flow_analyze", `{"op": "flow_analyze", "samples": [{"well": "plate/A1"}]}`, "flow_analyze"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			instr, err := Decode(json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, instr.Op())
		})
	}
}

func TestDecodeStamp(t *testing.T) {
	instr, err := Decode(json.RawMessage(`{
		"op": "stamp",
		"groups": [{
			"transfer": [{"from": "src/A1", "to": "dst/A1", "volume": "10:microliter"}],
			"shape": {"rows": 8, "columns": 12}
		}]
	}`))
	require.NoError(t, err)

	st, ok := instr.(*Stamp)
	require.True(t, ok)
	require.Len(t, st.Groups, 1)
	assert.Equal(t, 8, st.Groups[0].Shape.Rows)
	assert.Equal(t, 12, st.Groups[0].Shape.Columns)
	assert.Equal(t, Unit("10:microliter"), st.Groups[0].Transfer[0].Volume)
}

func TestDecodeGelPurify(t *testing.T) {
	instr, err := Decode(json.RawMessage(`{
		"op": "gel_purify",
		"matrix": "agarose(8,0.8%)",
		"extract": [
			{"band_size_range": {"min_bp": 100, "max_bp": 400}},
			{"band_size_range": {"min_bp": 400, "max_bp": 800}}
		]
	}`))
	require.NoError(t, err)

	gp, ok := instr.(*GelPurify)
	require.True(t, ok)
	assert.Equal(t, "0.8%", gp.MatrixName())
	require.Len(t, gp.Extract, 2)
	assert.Equal(t, 400, gp.Extract[0].BandSizeRange.MaxBP)
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode(json.RawMessage(`{"object": "p"}`))
	assert.ErrorIs(t, err, ErrInvalidProtocol)

	_, err = Decode(json.RawMessage(`{"op": "cover", "object": 42}`))
	assert.ErrorIs(t, err, ErrInvalidProtocol)

	_, err = Decode(json.RawMessage(`{"op": "teleport"}`))
	assert.ErrorIs(t, err, ErrUnsupportedInstruction)
}

func TestWellRef(t *testing.T) {
	ref := WellRef("sample_plate/A1")
	assert.Equal(t, "sample_plate", ref.Container())
	assert.Equal(t, "A1", ref.Well())

	bare := WellRef("tube")
	assert.Equal(t, "tube", bare.Container())
	assert.Equal(t, "", bare.Well())
}

func TestUnitSplit(t *testing.T) {
	value, name := Unit("50:microliter").Split()
	assert.Equal(t, "50", value)
	assert.Equal(t, "microliter", name)
}

func TestGelSeparateMatrixName(t *testing.T) {
	g := &GelSeparate{Matrix: "agarose(96,2.0%)"}
	assert.Equal(t, "2.0%", g.MatrixName())
}
