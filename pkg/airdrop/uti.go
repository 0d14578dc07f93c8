package airdrop

import "bytes"

// magicByteLen is how much of a file's head the UTI table inspects, per
// the spec's "first 128 bytes" contract.
const magicByteLen = 128

// genericUTI is the fallback Uniform Type Identifier for files whose
// magic bytes don't match any known signature.
const genericUTI = "public.data"

type magicSignature struct {
	prefix []byte
	uti    string
}

// magicTable maps leading byte signatures to Apple UTI strings. It only
// needs to be good enough to pick an icon-worthy MIME family and a
// plausible FileType for the Ask payload; peers don't validate it.
var magicTable = []magicSignature{
	{[]byte("\x89PNG\r\n\x1a\n"), "public.png"},
	{[]byte("\xff\xd8\xff"), "public.jpeg"},
	{[]byte("GIF87a"), "com.compuserve.gif"},
	{[]byte("GIF89a"), "com.compuserve.gif"},
	{[]byte("%PDF-"), "com.adobe.pdf"},
	{[]byte("PK\x03\x04"), "public.zip-archive"},
	{[]byte("\x1f\x8b"), "org.gnu.gnu-zip-archive"},
}

// InferUTI inspects the first magicByteLen bytes of data and returns the
// best-matching Uniform Type Identifier, falling back to a generic binary
// UTI when nothing matches.
func InferUTI(data []byte) string {
	if len(data) > magicByteLen {
		data = data[:magicByteLen]
	}
	for _, sig := range magicTable {
		if bytes.HasPrefix(data, sig.prefix) {
			return sig.uti
		}
	}
	return genericUTI
}

// IsImageUTI reports whether a UTI string denotes an image type eligible
// for auto-generated FileIcon data.
func IsImageUTI(uti string) bool {
	switch uti {
	case "public.png", "public.jpeg", "com.compuserve.gif":
		return true
	default:
		return false
	}
}
