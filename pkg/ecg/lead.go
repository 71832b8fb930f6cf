package ecg

// Lead identifies one of the twelve standard ECG leads.
type Lead int

const (
	I Lead = iota
	II
	III
	AVR
	AVL
	AVF
	V1
	V2
	V3
	V4
	V5
	V6
)

// String returns the conventional lead name, as used in CSV headers.
func (l Lead) String() string {
	return leadNames[l]
}

var leadNames = [...]string{
	I: "I", II: "II", III: "III",
	AVR: "aVR", AVL: "aVL", AVF: "aVF",
	V1: "V1", V2: "V2", V3: "V3", V4: "V4", V5: "V5", V6: "V6",
}

// Standard is the printed order of a standard-format ECG.
var Standard = [12]Lead{I, II, III, AVR, AVL, AVF, V1, V2, V3, V4, V5, V6}

// Cabrera is the printed order of a Cabrera-format ECG; aVR is inverted when
// this ordering is in effect (see Configuration.Cabrera).
var Cabrera = [12]Lead{AVL, I, AVR, II, AVF, III, V1, V2, V3, V4, V5, V6}
