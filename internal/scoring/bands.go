package scoring

import (
	"errors"
	"fmt"

	"github.com/pavelanni/bandscore/internal/model"
)

// MaxRaw is the highest raw score of an auto-marked section.
const MaxRaw = 40

// ErrNoTable is returned for skills that are not auto-marked.
var ErrNoTable = errors.New("no band table for skill")

// Table maps a raw score (0-40) to a band. Tables are built once and never
// modified, so they can be shared freely.
type Table struct {
	name  string
	bands [MaxRaw + 1]float64
}

type step struct {
	minRaw int
	band   float64
}

// newTable expands descending thresholds into a lookup array.
// Counts below the lowest threshold map to 0.
func newTable(name string, steps []step) *Table {
	t := &Table{name: name}
	for raw := 0; raw <= MaxRaw; raw++ {
		for _, s := range steps {
			if raw >= s.minRaw {
				t.bands[raw] = s.band
				break
			}
		}
	}
	return t
}

// Name returns the table identifier.
func (t *Table) Name() string { return t.name }

// Band returns the band for raw, clamping raw to 0..MaxRaw.
func (t *Table) Band(raw int) float64 {
	if raw < 0 {
		raw = 0
	}
	if raw > MaxRaw {
		raw = MaxRaw
	}
	return t.bands[raw]
}

// RawToBand converts a raw correct count to a band using table.
func RawToBand(raw int, table *Table) float64 {
	return table.Band(raw)
}

var (
	// Listening applies to every listening test.
	Listening = newTable("listening", []step{
		{39, 9.0}, {37, 8.5}, {35, 8.0}, {32, 7.5}, {30, 7.0}, {26, 6.5},
		{23, 6.0}, {18, 5.5}, {16, 5.0}, {13, 4.5}, {10, 4.0}, {8, 3.5},
		{6, 3.0}, {4, 2.5}, {3, 2.0}, {2, 1.5}, {1, 1.0},
	})

	// ReadingAcademic applies to academic reading tests.
	ReadingAcademic = newTable("reading-academic", []step{
		{39, 9.0}, {37, 8.5}, {35, 8.0}, {33, 7.5}, {30, 7.0}, {25, 6.5},
		{23, 6.0}, {19, 5.5}, {15, 5.0}, {13, 4.5}, {10, 4.0}, {8, 3.5},
		{6, 3.0}, {4, 2.5}, {3, 2.0}, {2, 1.5}, {1, 1.0},
	})

	// ReadingGeneral applies to general-training reading tests.
	ReadingGeneral = newTable("reading-general-training", []step{
		{40, 9.0}, {39, 8.5}, {37, 8.0}, {36, 7.5}, {34, 7.0}, {32, 6.5},
		{30, 6.0}, {27, 5.5}, {23, 5.0}, {19, 4.5}, {15, 4.0}, {12, 3.5},
		{9, 3.0}, {6, 2.5}, {4, 2.0}, {2, 1.5}, {1, 1.0},
	})
)

// TableFor selects the band table for a test. Reading tests without a
// type use the academic table.
func TableFor(skill model.Skill, testType model.TestType) (*Table, error) {
	switch skill {
	case model.SkillListening:
		return Listening, nil
	case model.SkillReading:
		if testType == model.TestTypeGeneralTraining {
			return ReadingGeneral, nil
		}
		return ReadingAcademic, nil
	}
	return nil, fmt.Errorf("%w %q", ErrNoTable, skill)
}
