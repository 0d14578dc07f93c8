package airdrop

import "testing"

func TestInferUTI(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want string
	}{
		{"png", []byte("\x89PNG\r\n\x1a\nrest-of-file"), "public.png"},
		{"jpeg", []byte("\xff\xd8\xffrest-of-file"), "public.jpeg"},
		{"gif87", []byte("GIF87arest"), "com.compuserve.gif"},
		{"gif89", []byte("GIF89arest"), "com.compuserve.gif"},
		{"pdf", []byte("%PDF-1.7 rest"), "com.adobe.pdf"},
		{"zip", []byte("PK\x03\x04rest"), "public.zip-archive"},
		{"gzip", []byte("\x1f\x8brest"), "org.gnu.gnu-zip-archive"},
		{"unknown", []byte("just some text"), "public.data"},
		{"empty", []byte{}, "public.data"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := InferUTI(tc.data); got != tc.want {
				t.Errorf("InferUTI(%q) = %q, want %q", tc.data, got, tc.want)
			}
		})
	}
}

func TestInferUTITruncatesToMagicByteLen(t *testing.T) {
	data := make([]byte, magicByteLen*4)
	copy(data, "%PDF-")
	if got := InferUTI(data); got != "com.adobe.pdf" {
		t.Errorf("InferUTI on oversized input = %q, want com.adobe.pdf", got)
	}
}

func TestIsImageUTI(t *testing.T) {
	if !IsImageUTI("public.png") {
		t.Error("public.png should be an image UTI")
	}
	if IsImageUTI("com.adobe.pdf") {
		t.Error("com.adobe.pdf should not be an image UTI")
	}
	if IsImageUTI("public.data") {
		t.Error("public.data should not be an image UTI")
	}
}
