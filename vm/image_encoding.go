package vm

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ---------------------------------------------------------------------------
// Program images: binary counterpart of the text wire format
// ---------------------------------------------------------------------------

// ImageVersion is the current image format version.
// Increment when making incompatible changes to the format.
const ImageVersion uint16 = 1

// ImageMagic prefixes every image: "PM0B" (PM/0 Bytecode).
var ImageMagic = []byte{'P', 'M', '0', 'B'}

type imageInstruction struct {
	_  struct{} `cbor:",toarray"`
	Op int
	L  int
	M  int
}

type image struct {
	Version uint16             `cbor:"1,keyasint"`
	Code    []imageInstruction `cbor:"2,keyasint"`
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// IsImage reports whether data starts with the image magic bytes.
func IsImage(data []byte) bool {
	return bytes.HasPrefix(data, ImageMagic)
}

// EncodeImage serializes a program to the binary image format.
func EncodeImage(p Program) ([]byte, error) {
	img := image{
		Version: ImageVersion,
		Code:    make([]imageInstruction, len(p)),
	}
	for i, in := range p {
		img.Code[i] = imageInstruction{Op: int(in.Op), L: in.L, M: in.M}
	}
	payload, err := cborEncMode.Marshal(img)
	if err != nil {
		return nil, fmt.Errorf("vm: encode image: %w", err)
	}
	return append(append([]byte{}, ImageMagic...), payload...), nil
}

// DecodeImage deserializes a program from the binary image format.
func DecodeImage(data []byte) (Program, error) {
	if !IsImage(data) {
		return nil, fmt.Errorf("%w: invalid image magic", ErrMalformedProgram)
	}
	var img image
	if err := cbor.Unmarshal(data[len(ImageMagic):], &img); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedProgram, err)
	}
	if img.Version > ImageVersion {
		return nil, fmt.Errorf("%w: image version %d is newer than supported version %d",
			ErrMalformedProgram, img.Version, ImageVersion)
	}
	p := make(Program, len(img.Code))
	for i, in := range img.Code {
		p[i] = Instruction{Op: Opcode(in.Op), L: in.L, M: in.M}
	}
	return p, nil
}
