// Package english renders Autoprotocol instructions as human-readable
// sentences, one or more lines per instruction.
package english

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/strateos/strateos-go/internal/autoprotocol"
)

// pluralUnits are unit names that take an "s" when the value exceeds one.
var pluralUnits = map[string]bool{
	"microliter": true,
	"nanoliter":  true,
	"milliliter": true,
	"second":     true,
	"minute":     true,
	"hour":       true,
	"g":          true,
	"nanometer":  true,
}

// storageNames maps storage condition codes to plain English.
var storageNames = map[string]string{
	"cold_20": "-20 degrees celsius",
	"cold_80": "-80 degrees celsius",
	"warm_37": "37 degrees celsius",
	"cold_4":  "4 degrees celsius",
	"warm_30": "30 degrees celsius",
	"ambient": "room temperature",
}

// Summarize renders every instruction of a protocol as numbered lines. A
// single untranslatable instruction fails the whole summary; no partial
// output is returned.
func Summarize(p *autoprotocol.Protocol) ([]string, error) {
	var lines []string
	for _, instr := range p.Instructions {
		out, err := Translate(instr)
		if err != nil {
			return nil, err
		}
		lines = append(lines, out...)
	}
	numbered := make([]string, len(lines))
	for i, line := range lines {
		numbered[i] = fmt.Sprintf("%d. %s", i+1, line)
	}
	return numbered, nil
}

// Translate renders one instruction. Instructions that expand to several
// steps, such as grouped pipette operations, return one line per step.
func Translate(instr autoprotocol.Instruction) ([]string, error) {
	switch v := instr.(type) {
	case *autoprotocol.Pipette:
		return pipette(v), nil
	case *autoprotocol.AcousticTransfer:
		return acousticTransfer(v), nil
	case *autoprotocol.MagneticTransfer:
		return magneticTransfer(v), nil
	case *autoprotocol.Dispense:
		return []string{dispense(v)}, nil
	case *autoprotocol.Provision:
		return provision(v), nil
	case *autoprotocol.Incubate:
		return []string{incubate(v)}, nil
	case *autoprotocol.Cover:
		return []string{fmt.Sprintf("Cover %s with a %s lid", v.Object, v.Lid)}, nil
	case *autoprotocol.Uncover:
		return []string{fmt.Sprintf("Uncover %s", v.Object)}, nil
	case *autoprotocol.Seal:
		return []string{fmt.Sprintf("Seal %s (%s)", v.Object, v.Type)}, nil
	case *autoprotocol.Unseal:
		return []string{fmt.Sprintf("Unseal %s", v.Object)}, nil
	case *autoprotocol.Spin:
		return []string{fmt.Sprintf("Spin %s for %s at %s",
			v.Object, unit(v.Duration), unit(v.Acceleration))}, nil
	case *autoprotocol.Thermocycle:
		return []string{fmt.Sprintf("Thermocycle %s", v.Object)}, nil
	case *autoprotocol.Absorbance:
		return []string{fmt.Sprintf("Measure absorbance at %s for %s of plate %s",
			unit(v.Wavelength), wellList(v.Wells, 10), v.Object)}, nil
	case *autoprotocol.Fluorescence:
		return []string{fmt.Sprintf(
			"Read fluorescence of %s of plate %s at excitation wavelength %s and emission wavelength %s",
			wellList(v.Wells, 10), v.Object, unit(v.Excitation), unit(v.Emission))}, nil
	case *autoprotocol.Luminescence:
		return []string{fmt.Sprintf("Read luminescence of %s of plate %s",
			wellList(v.Wells, 10), v.Object)}, nil
	case *autoprotocol.GelSeparate:
		return []string{fmt.Sprintf("Perform gel electrophoresis using a %s agarose gel for %s",
			v.MatrixName(), unit(v.Duration))}, nil
	case *autoprotocol.GelPurify:
		return []string{gelPurify(v)}, nil
	case *autoprotocol.Autopick:
		return autopick(v), nil
	case *autoprotocol.Stamp:
		return stamp(v), nil
	case *autoprotocol.IlluminaSequence:
		return []string{illuminaSequence(v)}, nil
	case *autoprotocol.FlowAnalyze:
		return []string{flowAnalyze(v)}, nil
	case *autoprotocol.FlashFreeze:
		return []string{fmt.Sprintf("Flash freeze %s for %s", v.Object, unit(v.Duration))}, nil
	case *autoprotocol.ImagePlate:
		return []string{fmt.Sprintf("Take an image of %s", v.Object)}, nil
	case *autoprotocol.Oligosynthesize:
		return oligosynthesize(v), nil
	case *autoprotocol.Spread:
		return []string{fmt.Sprintf(
			"Spread %s of bacteria from well %s of %s to well %s of agar plate %s",
			string(v.Volume), v.From.Well(), v.From.Container(), v.To.Well(), v.To.Container())}, nil
	case *autoprotocol.SangerSequence:
		return []string{sangerSequence(v)}, nil
	case *autoprotocol.MeasureMass:
		return []string{fmt.Sprintf("Measure mass of %s", strings.Join(v.Object, ", "))}, nil
	case *autoprotocol.MeasureVolume:
		return []string{measureVolume(v)}, nil
	case *autoprotocol.MeasureConcentration:
		return []string{fmt.Sprintf("Measure concentration of %s %s source aliquots of %s",
			unit(v.Volume), v.Measurement, autoprotocol.WellRef(v.Object[0]).Container())}, nil
	}
	return nil, autoprotocol.ErrUnsupportedInstruction.Msg(
		fmt.Sprintf("no translation for instruction op %q", instr.Op()))
}

func pipette(v *autoprotocol.Pipette) []string {
	var lines []string
	for _, g := range v.Groups {
		for i, t := range g.Transfer {
			line := fmt.Sprintf("Transfer %s from %s to %s", unit(t.Volume), t.From, t.To)
			if len(g.Transfer) > 1 && i > 0 {
				line += " with the same tip as previous"
			}
			lines = append(lines, line)
		}
		for _, m := range g.Mix {
			lines = append(lines, fmt.Sprintf(
				"Mix well %s of plate %s %d times with a volume of %s",
				m.Well.Well(), m.Well.Container(), m.Repetitions, unit(m.Volume)))
		}
		if d := g.Distribute; d != nil {
			wells := make([]string, len(d.To))
			for i, t := range d.To {
				wells[i] = string(t.Well)
			}
			lines = append(lines, fmt.Sprintf("Distribute from %s into %s",
				d.From, wellList(wells, 20)))
		}
		if c := g.Consolidate; c != nil {
			wells := make([]string, len(c.From))
			for i, t := range c.From {
				wells[i] = string(t.Well)
			}
			lines = append(lines, fmt.Sprintf("Consolidate %s into %s",
				wellList(wells, 20), c.To))
		}
	}
	return lines
}

func acousticTransfer(v *autoprotocol.AcousticTransfer) []string {
	var lines []string
	for _, g := range v.Groups {
		for _, t := range g.Transfer {
			lines = append(lines, fmt.Sprintf("Acoustic transfer %s from %s to %s",
				unit(t.Volume), t.From, t.To))
		}
	}
	return lines
}

func magneticTransfer(v *autoprotocol.MagneticTransfer) []string {
	var lines []string
	for _, group := range v.Groups {
		for _, item := range group {
			switch {
			case item.Dry != nil:
				lines = append(lines, fmt.Sprintf("Magnetically dry %s for %s",
					item.Dry.Object, unit(item.Dry.Duration)))
			case item.Incubate != nil:
				lines = append(lines, fmt.Sprintf(
					"Magnetically incubate %s for %s with a tip position of %g",
					item.Incubate.Object, unit(item.Incubate.Duration), item.Incubate.TipPosition))
			case item.Collect != nil:
				lines = append(lines, fmt.Sprintf(
					"Magnetically collect %s beads for %d cycles with a pause duration of %s",
					item.Collect.Object, item.Collect.Cycles, unit(item.Collect.PauseDuration)))
			case item.Release != nil:
				lines = append(lines, agitate("release", item.Release))
			case item.Mix != nil:
				lines = append(lines, agitate("mix", item.Mix))
			}
		}
	}
	return lines
}

func agitate(op string, a *autoprotocol.MagneticAgitate) string {
	return fmt.Sprintf("Magnetically %s %s beads for %s at an amplitude of %g",
		op, a.Object, unit(a.Duration), a.Amplitude)
}

func dispense(v *autoprotocol.Dispense) string {
	reagent := v.Reagent
	if reagent == "" {
		if v.ResourceID != "" {
			reagent = fmt.Sprintf("resource with resource ID %s", v.ResourceID)
		} else {
			reagent = "unknown"
		}
	}

	uniqueVolumes := map[autoprotocol.Unit]bool{}
	for _, col := range v.Columns {
		uniqueVolumes[col.Volume] = true
	}
	if len(v.Columns) == 12 && len(uniqueVolumes) == 1 {
		return fmt.Sprintf("Dispense %s of %s to the full plate of %s",
			unit(v.Columns[0].Volume), reagent, v.Object)
	}
	return fmt.Sprintf("Dispense corresponding amounts of %s to %d column(s) of %s",
		reagent, len(v.Columns), v.Object)
}

func provision(v *autoprotocol.Provision) []string {
	reagent := fmt.Sprintf("resource with resource ID %s", v.ResourceID)
	lines := make([]string, len(v.To))
	for i, t := range v.To {
		lines[i] = fmt.Sprintf("Provision %s of %s to well %s of container %s",
			unit(t.Volume), reagent, t.Well.Well(), t.Well.Container())
	}
	return lines
}

func gelPurify(v *autoprotocol.GelPurify) string {
	var ranges []string
	seen := map[string]bool{}
	for _, ext := range v.Extract {
		r := fmt.Sprintf("%d-%d", ext.BandSizeRange.MinBP, ext.BandSizeRange.MaxBP)
		if !seen[r] {
			seen[r] = true
			ranges = append(ranges, r)
		}
	}
	if len(ranges) <= 3 {
		return fmt.Sprintf("Perform gel purification on the %s agarose gel with band range(s) %s",
			v.MatrixName(), strings.Join(ranges, ", "))
	}
	return fmt.Sprintf("Perform gel purification on the %s agarose gel with %d band ranges",
		v.MatrixName(), len(ranges))
}

func autopick(v *autoprotocol.Autopick) []string {
	lines := make([]string, 0, len(v.Groups))
	for i, g := range v.Groups {
		wellWord := "wells"
		if len(g.From) == 1 {
			wellWord = "well"
		}
		note := "analyzed with previous"
		if i == 0 {
			note = fmt.Sprintf("data saved at '%s'", v.Dataref)
		}
		lines = append(lines, fmt.Sprintf("Pick %d colonies from %d %s: %s to %s, %s",
			len(g.To), len(g.From), wellWord, wellList(g.From, 10), wellList(g.To, 10), note))
	}
	return lines
}

func stamp(v *autoprotocol.Stamp) []string {
	var lines []string
	for _, g := range v.Groups {
		for i, t := range g.Transfer {
			line := fmt.Sprintf("Stamp %s from source origin %s to destination origin %s",
				unit(t.Volume), t.From, t.To)
			if len(g.Transfer) > 1 && i > 0 {
				line += " with the same set of tips as previous"
			}
			line += fmt.Sprintf(" (%d rows x %d columns)", g.Shape.Rows, g.Shape.Columns)
			lines = append(lines, line)
		}
	}
	return lines
}

func illuminaSequence(v *autoprotocol.IlluminaSequence) string {
	var wells []string
	seen := map[string]bool{}
	for _, lane := range v.Lanes {
		w := string(lane.Object)
		if !seen[w] {
			seen[w] = true
			wells = append(wells, w)
		}
	}
	plates := uniquePlates(wells)

	var seq string
	switch {
	case len(plates) == 1 && len(wells) <= 3:
		seq = fmt.Sprintf("Illumina sequence wells %s", strings.Join(wells, ", "))
	case len(plates) <= 3:
		seq = fmt.Sprintf("Illumina sequence the corresponding wells of plates %s",
			strings.Join(plates, ", "))
	default:
		seq = fmt.Sprintf("Illumina sequence the corresponding wells of %d plates", len(plates))
	}
	return seq + fmt.Sprintf(" with library size %d", v.LibrarySize)
}

func flowAnalyze(v *autoprotocol.FlowAnalyze) string {
	var wells []string
	seen := map[string]bool{}
	for _, s := range v.Samples {
		w := string(s.Well)
		if !seen[w] {
			seen[w] = true
			wells = append(wells, w)
		}
	}
	return fmt.Sprintf("Perform flow cytometry on %s with the respective FSC and SSC channel parameters",
		strings.Join(wells, ", "))
}

func incubate(v *autoprotocol.Incubate) string {
	where, ok := storageNames[v.Where]
	if !ok {
		where = v.Where
	}
	shaking := ""
	if v.Shaking {
		shaking = " (shaking)"
	}
	return fmt.Sprintf("Incubate %s at %s for %s%s",
		v.Object, where, unit(v.Duration), shaking)
}

func oligosynthesize(v *autoprotocol.Oligosynthesize) []string {
	lines := make([]string, len(v.Oligos))
	for i, o := range v.Oligos {
		lines[i] = fmt.Sprintf("Oligosynthesize sequence '%s' into '%s'",
			o.Sequence, o.Destination)
	}
	return lines
}

func sangerSequence(v *autoprotocol.SangerSequence) string {
	seq := fmt.Sprintf("Sanger sequence %s of plate %s", wellList(v.Wells, 10), v.Object)
	if v.Type == "rca" && v.Primer != "" {
		seq += fmt.Sprintf(" with %s", v.Primer.Container())
	}
	return seq
}

func measureVolume(v *autoprotocol.MeasureVolume) string {
	plates := uniquePlates(v.Object)
	if len(plates) <= 3 {
		return fmt.Sprintf("Measure volume of %d wells from %s",
			len(v.Object), strings.Join(plates, ", "))
	}
	return fmt.Sprintf("Measure volume of %d wells from the %d plates",
		len(v.Object), len(plates))
}

// uniquePlates collapses well references to their containers, preserving
// first-seen order.
func uniquePlates(wells []string) []string {
	var plates []string
	seen := map[string]bool{}
	for _, w := range wells {
		plate := autoprotocol.WellRef(w).Container()
		if !seen[plate] {
			seen[plate] = true
			plates = append(plates, plate)
		}
	}
	return plates
}

// wellList names wells individually up to maxLen, then falls back to a count.
func wellList(wells []string, maxLen int) string {
	if len(wells) > maxLen {
		return fmt.Sprintf("%d wells", len(wells))
	}
	return "wells " + strings.Join(wells, ", ")
}

// unit renders "50:microliter" as "50 microliters", pluralizing counted
// units when the value exceeds one.
func unit(u autoprotocol.Unit) string {
	value, name := u.Split()
	if f, err := strconv.ParseFloat(value, 64); err == nil && f > 1 && pluralUnits[name] {
		name += "s"
	}
	return value + " " + name
}
