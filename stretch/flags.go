// SPDX-License-Identifier: EPL-2.0

package stretch

// Flags is the option bit set handed to a Module when a stretcher is
// created. Zero values select the default of each group.
type Flags uint32

const (
	OptionProcessOffline  Flags = 0x00000000
	OptionProcessRealTime Flags = 0x00000001

	OptionDetectorCompound   Flags = 0x00000000
	OptionDetectorPercussive Flags = 0x00000400
	OptionDetectorSoft       Flags = 0x00000800

	OptionWindowStandard Flags = 0x00000000
	OptionWindowShort    Flags = 0x00100000
	OptionWindowLong     Flags = 0x00200000

	OptionSmoothingOff Flags = 0x00000000
	OptionSmoothingOn  Flags = 0x00800000

	OptionFormantShifted   Flags = 0x00000000
	OptionFormantPreserved Flags = 0x01000000

	OptionPitchHighSpeed   Flags = 0x00000000
	OptionPitchHighQuality Flags = 0x02000000
)

func (f Flags) Has(opt Flags) bool { return f&opt == opt }

// Detector returns the detector selected by f.
func (f Flags) Detector() Detector {
	switch {
	case f.Has(OptionDetectorPercussive):
		return DetectorPercussive
	case f.Has(OptionDetectorSoft):
		return DetectorSoft
	default:
		return DetectorCompound
	}
}
