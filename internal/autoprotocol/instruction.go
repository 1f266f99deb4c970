// Package autoprotocol models the Autoprotocol instruction-list format
// produced by lab protocols. Instructions form a closed set of typed
// variants; raw JSON is parsed into a variant at the boundary, and an
// unfamiliar operation fails loudly there rather than round-tripping as an
// opaque blob that would hide real protocol errors.
package autoprotocol

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Instruction is one step of an Autoprotocol document. The set of
// implementations in this package is closed; see Decode.
type Instruction interface {
	Op() string
}

// Unit is a dimensioned value in "value:unit" form, e.g. "50:microliter".
type Unit string

// Split returns the value and the unit name.
func (u Unit) Split() (string, string) {
	value, unit, _ := strings.Cut(string(u), ":")
	return value, unit
}

// WellRef is a "container/well" reference, e.g. "plate_1/A1". A bare
// container name refers to the container itself.
type WellRef string

// Container returns the container part of the reference.
func (w WellRef) Container() string {
	name, _, _ := strings.Cut(string(w), "/")
	return name
}

// Well returns the well part of the reference, empty for bare containers.
func (w WellRef) Well() string {
	_, well, _ := strings.Cut(string(w), "/")
	return well
}

// Protocol is a complete Autoprotocol document.
type Protocol struct {
	Refs         map[string]Ref
	Instructions []Instruction
}

// Ref binds a container name used by instructions to a concrete or new
// container.
type Ref struct {
	ID      string          `json:"id,omitempty"`
	New     string          `json:"new,omitempty"`
	Store   json.RawMessage `json:"store,omitempty"`
	Discard bool            `json:"discard,omitempty"`
}

// Parse decodes a complete Autoprotocol document. Fails with
// ErrUnsupportedInstruction if any instruction has an operation outside the
// supported set; no partial document is returned.
func Parse(raw []byte) (*Protocol, error) {
	var doc struct {
		Refs         map[string]Ref    `json:"refs"`
		Instructions []json.RawMessage `json:"instructions"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, ErrInvalidProtocol.MsgErr("protocol is not valid JSON", err)
	}

	p := &Protocol{Refs: doc.Refs}
	for i, rawInstr := range doc.Instructions {
		instr, err := Decode(rawInstr)
		if err != nil {
			return nil, ErrInvalidProtocol.MsgErr(
				fmt.Sprintf("instruction %d is invalid", i+1), err)
		}
		p.Instructions = append(p.Instructions, instr)
	}
	return p, nil
}

// Decode parses one raw instruction into its typed variant, keyed by the
// "op" tag. An unknown operation fails with ErrUnsupportedInstruction.
func Decode(raw json.RawMessage) (Instruction, error) {
	op := gjson.GetBytes(raw, "op").String()
	if op == "" {
		return nil, ErrInvalidProtocol.Msg("instruction has no op tag")
	}

	target, ok := newInstruction(op)
	if !ok {
		return nil, ErrUnsupportedInstruction.Msg(fmt.Sprintf("unsupported instruction op %q", op))
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return nil, ErrInvalidProtocol.MsgErr(fmt.Sprintf("malformed %s instruction", op), err)
	}
	return target, nil
}

// newInstruction returns a zero value for the given operation tag. This is
// the single registry of supported instruction kinds.
func newInstruction(op string) (Instruction, bool) {
	switch op {
	case "pipette":
		return &Pipette{}, true
	case "acoustic_transfer":
		return &AcousticTransfer{}, true
	case "magnetic_transfer":
		return &MagneticTransfer{}, true
	case "dispense":
		return &Dispense{}, true
	case "provision":
		return &Provision{}, true
	case "incubate":
		return &Incubate{}, true
	case "cover":
		return &Cover{}, true
	case "uncover":
		return &Uncover{}, true
	case "seal":
		return &Seal{}, true
	case "unseal":
		return &Unseal{}, true
	case "spin":
		return &Spin{}, true
	case "thermocycle":
		return &Thermocycle{}, true
	case "absorbance":
		return &Absorbance{}, true
	case "fluorescence":
		return &Fluorescence{}, true
	case "luminescence":
		return &Luminescence{}, true
	case "gel_separate":
		return &GelSeparate{}, true
	case "gel_purify":
		return &GelPurify{}, true
	case "autopick":
		return &Autopick{}, true
	case "stamp":
		return &Stamp{}, true
	case "illumina_sequence":
		return &IlluminaSequence{}, true
	case "flow_analyze":
		return &FlowAnalyze{}, true
	case "flash_freeze":
		return &FlashFreeze{}, true
	case "image_plate":
		return &ImagePlate{}, true
	case "oligosynthesize":
		return &Oligosynthesize{}, true
	case "spread":
		return &Spread{}, true
	case "sanger_sequence":
		return &SangerSequence{}, true
	case "measure_mass":
		return &MeasureMass{}, true
	case "measure_volume":
		return &MeasureVolume{}, true
	case "measure_concentration":
		return &MeasureConcentration{}, true
	}
	return nil, false
}

// Pipette covers liquid handling: transfers, mixes, distributes, and
// consolidations, grouped to share tips.
type Pipette struct {
	Groups []PipetteGroup `json:"groups"`
}

func (*Pipette) Op() string { return "pipette" }

// PipetteGroup holds at most one kind of liquid-handling step.
type PipetteGroup struct {
	Transfer    []Transfer   `json:"transfer,omitempty"`
	Mix         []Mix        `json:"mix,omitempty"`
	Distribute  *Distribute  `json:"distribute,omitempty"`
	Consolidate *Consolidate `json:"consolidate,omitempty"`
}

// Transfer moves a volume from one well to another.
type Transfer struct {
	From   WellRef `json:"from"`
	To     WellRef `json:"to"`
	Volume Unit    `json:"volume"`
}

// Mix pipettes a volume up and down in a well.
type Mix struct {
	Well        WellRef `json:"well"`
	Volume      Unit    `json:"volume"`
	Repetitions int     `json:"repetitions"`
}

// Distribute spreads volume from one source well to many destinations.
type Distribute struct {
	From WellRef        `json:"from"`
	To   []VolumeTarget `json:"to"`
}

// Consolidate pools volume from many source wells into one destination.
type Consolidate struct {
	From []VolumeTarget `json:"from"`
	To   WellRef        `json:"to"`
}

// VolumeTarget pairs a well with a volume.
type VolumeTarget struct {
	Well   WellRef `json:"well"`
	Volume Unit    `json:"volume"`
}

// AcousticTransfer moves volumes acoustically, without tips.
type AcousticTransfer struct {
	Groups []struct {
		Transfer []Transfer `json:"transfer"`
	} `json:"groups"`
}

func (*AcousticTransfer) Op() string { return "acoustic_transfer" }

// MagneticTransfer manipulates beads with a magnetic head. Each group item
// carries exactly one sub-operation.
type MagneticTransfer struct {
	Groups [][]MagneticGroupItem `json:"groups"`
}

func (*MagneticTransfer) Op() string { return "magnetic_transfer" }

// MagneticGroupItem holds one magnetic sub-operation.
type MagneticGroupItem struct {
	Dry      *MagneticDry      `json:"dry,omitempty"`
	Incubate *MagneticIncubate `json:"incubate,omitempty"`
	Collect  *MagneticCollect  `json:"collect,omitempty"`
	Release  *MagneticAgitate  `json:"release,omitempty"`
	Mix      *MagneticAgitate  `json:"mix,omitempty"`
}

// MagneticDry dries beads on the head.
type MagneticDry struct {
	Object   string `json:"object"`
	Duration Unit   `json:"duration"`
}

// MagneticIncubate holds beads at a tip position.
type MagneticIncubate struct {
	Object      string  `json:"object"`
	Duration    Unit    `json:"duration"`
	TipPosition float64 `json:"tip_position"`
}

// MagneticCollect gathers beads over repeated cycles.
type MagneticCollect struct {
	Object        string `json:"object"`
	Cycles        int    `json:"cycles"`
	PauseDuration Unit   `json:"pause_duration"`
}

// MagneticAgitate shakes beads loose (release) or mixes them.
type MagneticAgitate struct {
	Object    string  `json:"object"`
	Duration  Unit    `json:"duration"`
	Amplitude float64 `json:"amplitude"`
}

// Dispense adds reagent to columns of a plate.
type Dispense struct {
	Object     string           `json:"object"`
	Reagent    string           `json:"reagent,omitempty"`
	ResourceID string           `json:"resource_id,omitempty"`
	Columns    []DispenseColumn `json:"columns"`
}

func (*Dispense) Op() string { return "dispense" }

// DispenseColumn pairs a plate column with a volume.
type DispenseColumn struct {
	Column int  `json:"column"`
	Volume Unit `json:"volume"`
}

// Provision moves stock resource into destination wells.
type Provision struct {
	ResourceID string         `json:"resource_id"`
	To         []VolumeTarget `json:"to"`
}

func (*Provision) Op() string { return "provision" }

// Incubate stores a container at a condition for a duration.
type Incubate struct {
	Object   string `json:"object"`
	Where    string `json:"where"`
	Duration Unit   `json:"duration"`
	Shaking  bool   `json:"shaking"`
	CO2      int    `json:"co2_percent,omitempty"`
}

func (*Incubate) Op() string { return "incubate" }

// Cover puts a lid on a plate.
type Cover struct {
	Object string `json:"object"`
	Lid    string `json:"lid"`
}

func (*Cover) Op() string { return "cover" }

// Uncover removes a plate lid.
type Uncover struct {
	Object string `json:"object"`
}

func (*Uncover) Op() string { return "uncover" }

// Seal applies a seal to a plate.
type Seal struct {
	Object string `json:"object"`
	Type   string `json:"type"`
}

func (*Seal) Op() string { return "seal" }

// Unseal removes a plate seal.
type Unseal struct {
	Object string `json:"object"`
}

func (*Unseal) Op() string { return "unseal" }

// Spin centrifuges a container.
type Spin struct {
	Object       string `json:"object"`
	Acceleration Unit   `json:"acceleration"`
	Duration     Unit   `json:"duration"`
}

func (*Spin) Op() string { return "spin" }

// Thermocycle runs a container through temperature cycles.
type Thermocycle struct {
	Object string          `json:"object"`
	Groups json.RawMessage `json:"groups,omitempty"`
	Volume Unit            `json:"volume,omitempty"`
}

func (*Thermocycle) Op() string { return "thermocycle" }

// Absorbance measures absorbance at a wavelength.
type Absorbance struct {
	Object     string   `json:"object"`
	Wells      []string `json:"wells"`
	Wavelength Unit     `json:"wavelength"`
	Dataref    string   `json:"dataref,omitempty"`
}

func (*Absorbance) Op() string { return "absorbance" }

// Fluorescence measures fluorescence at an excitation/emission pair.
type Fluorescence struct {
	Object     string   `json:"object"`
	Wells      []string `json:"wells"`
	Excitation Unit     `json:"excitation"`
	Emission   Unit     `json:"emission"`
	Dataref    string   `json:"dataref,omitempty"`
}

func (*Fluorescence) Op() string { return "fluorescence" }

// Luminescence measures luminescence.
type Luminescence struct {
	Object  string   `json:"object"`
	Wells   []string `json:"wells"`
	Dataref string   `json:"dataref,omitempty"`
}

func (*Luminescence) Op() string { return "luminescence" }

// GelSeparate runs samples on a gel. Matrix is of the form
// "agarose(96,2.0%)"; the percentage segment names the gel.
type GelSeparate struct {
	Objects  []string `json:"objects,omitempty"`
	Matrix   string   `json:"matrix"`
	Duration Unit     `json:"duration"`
	Dataref  string   `json:"dataref,omitempty"`
}

func (*GelSeparate) Op() string { return "gel_separate" }

// MatrixName returns the descriptive segment of the matrix string, e.g.
// "2.0%" from "agarose(96,2.0%)".
func (g *GelSeparate) MatrixName() string {
	return matrixName(g.Matrix)
}

// GelPurify extracts bands from a gel by size range.
type GelPurify struct {
	Objects []string     `json:"objects,omitempty"`
	Matrix  string       `json:"matrix"`
	Extract []GelExtract `json:"extract"`
}

func (*GelPurify) Op() string { return "gel_purify" }

// MatrixName returns the descriptive segment of the matrix string.
func (g *GelPurify) MatrixName() string {
	return matrixName(g.Matrix)
}

// GelExtract is one band extraction.
type GelExtract struct {
	BandSizeRange BandRange `json:"band_size_range"`
}

// BandRange is a band size window in base pairs.
type BandRange struct {
	MinBP int `json:"min_bp"`
	MaxBP int `json:"max_bp"`
}

func matrixName(matrix string) string {
	_, rest, ok := strings.Cut(matrix, ",")
	if !ok {
		return matrix
	}
	return strings.TrimSuffix(rest, ")")
}

// Autopick picks colonies from source wells into destination wells.
type Autopick struct {
	Groups  []AutopickGroup `json:"groups"`
	Dataref string          `json:"dataref,omitempty"`
}

func (*Autopick) Op() string { return "autopick" }

// AutopickGroup is one set of picks sharing an analysis.
type AutopickGroup struct {
	From []string `json:"from"`
	To   []string `json:"to"`
}

// Stamp transfers a rectangular block of wells between plates.
type Stamp struct {
	Groups []StampGroup `json:"groups"`
}

func (*Stamp) Op() string { return "stamp" }

// StampGroup holds transfers performed with one head shape.
type StampGroup struct {
	Transfer []Transfer `json:"transfer"`
	Shape    StampShape `json:"shape"`
}

// StampShape is the block of wells moved per transfer.
type StampShape struct {
	Rows    int `json:"rows"`
	Columns int `json:"columns"`
}

// IlluminaSequence sequences lanes of wells at a library size.
type IlluminaSequence struct {
	Lanes       []SequenceLane `json:"lanes"`
	LibrarySize int            `json:"library_size"`
	Dataref     string         `json:"dataref,omitempty"`
}

func (*IlluminaSequence) Op() string { return "illumina_sequence" }

// SequenceLane is one sequencing lane.
type SequenceLane struct {
	Object WellRef `json:"object"`
}

// FlowAnalyze runs flow cytometry on sample wells.
type FlowAnalyze struct {
	Samples []FlowSample `json:"samples"`
	Dataref string       `json:"dataref,omitempty"`
}

func (*FlowAnalyze) Op() string { return "flow_analyze" }

// FlowSample is one well measured by flow cytometry.
type FlowSample struct {
	Well WellRef `json:"well"`
}

// FlashFreeze snap-freezes a container.
type FlashFreeze struct {
	Object   string `json:"object"`
	Duration Unit   `json:"duration"`
}

func (*FlashFreeze) Op() string { return "flash_freeze" }

// ImagePlate photographs a plate.
type ImagePlate struct {
	Object  string `json:"object"`
	Mode    string `json:"mode,omitempty"`
	Dataref string `json:"dataref,omitempty"`
}

func (*ImagePlate) Op() string { return "image_plate" }

// Oligosynthesize synthesizes oligonucleotides into wells.
type Oligosynthesize struct {
	Oligos []Oligo `json:"oligos"`
}

func (*Oligosynthesize) Op() string { return "oligosynthesize" }

// Oligo is one sequence to synthesize.
type Oligo struct {
	Sequence    string  `json:"sequence"`
	Destination WellRef `json:"destination"`
}

// Spread streaks liquid across an agar plate.
type Spread struct {
	From   WellRef `json:"from"`
	To     WellRef `json:"to"`
	Volume Unit    `json:"volume"`
}

func (*Spread) Op() string { return "spread" }

// SangerSequence sequences wells, optionally with an RCA primer.
type SangerSequence struct {
	Object  string   `json:"object"`
	Wells   []string `json:"wells"`
	Type    string   `json:"type"`
	Primer  WellRef  `json:"primer,omitempty"`
	Dataref string   `json:"dataref,omitempty"`
}

func (*SangerSequence) Op() string { return "sanger_sequence" }

// MeasureMass weighs containers.
type MeasureMass struct {
	Object []string `json:"object"`
}

func (*MeasureMass) Op() string { return "measure_mass" }

// MeasureVolume measures well volumes.
type MeasureVolume struct {
	Object []string `json:"object"`
}

func (*MeasureVolume) Op() string { return "measure_volume" }

// MeasureConcentration measures analyte concentration in source aliquots.
type MeasureConcentration struct {
	Object      []string `json:"object"`
	Volume      Unit     `json:"volume"`
	Measurement string   `json:"measurement"`
}

func (*MeasureConcentration) Op() string { return "measure_concentration" }
