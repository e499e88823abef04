package export

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownKind = errors.New("unknown export kind")

// Kind is the artifact format requested by the caller.
type Kind string

const (
	KindImage Kind = "image"
	KindPDF   Kind = "pdf"
)

// ParseKind accepts "pdf" or "image" (also "png"), case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pdf":
		return KindPDF, nil
	case "image", "png":
		return KindImage, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownKind, s)
}

func (k Kind) Ext() string {
	if k == KindImage {
		return "png"
	}
	return "pdf"
}

func (k Kind) ContentType() string {
	if k == KindImage {
		return "image/png"
	}
	return "application/pdf"
}

// PDFMode selects how a PDF is produced.
type PDFMode string

const (
	// PDFStructured lays the document out from the diagnosis data.
	PDFStructured PDFMode = "structured"
	// PDFSnapshot embeds a rasterized capture of the view on an A4 page.
	PDFSnapshot PDFMode = "snapshot"
	// PDFHybrid is structured pages followed by a snapshot page.
	PDFHybrid PDFMode = "hybrid"
)

func (m *PDFMode) UnmarshalText(b []byte) error {
	switch v := PDFMode(strings.ToLower(string(b))); v {
	case PDFStructured, PDFSnapshot, PDFHybrid:
		*m = v
		return nil
	}
	return fmt.Errorf("unknown pdf mode %q", b)
}

// CaptureMode selects how the source view is prepared for rasterizing.
type CaptureMode string

const (
	// CaptureIsolated renders an off-screen clone; the live view is never touched.
	CaptureIsolated CaptureMode = "isolated"
	// CaptureInPlace transforms the live view and restores it afterwards.
	CaptureInPlace CaptureMode = "inplace"
)

func (m *CaptureMode) UnmarshalText(b []byte) error {
	switch v := CaptureMode(strings.ToLower(string(b))); v {
	case CaptureIsolated, CaptureInPlace:
		*m = v
		return nil
	}
	return fmt.Errorf("unknown capture mode %q", b)
}
