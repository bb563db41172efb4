// pkg/wire/frame.go
// Copyright(c) 2025 AirControlX contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package wire implements the fixed-width frames carried on the byte
// streams between the simulator, the AVN generator, the airline portal,
// and the payment service.  Frames have no alignment padding; integers are
// little-endian and strings are NUL-padded to their field width.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const (
	// Field widths, including the terminating NUL.
	FlightNumberLen = 20
	AirlineLen      = 20
	AircraftTypeLen = 20
	NoticeIDLen     = 30

	// ViolationFrameLen is flight + airline + three int32s.
	ViolationFrameLen = FlightNumberLen + AirlineLen + 12

	// PaymentFrameLen is notice id + flight + type + two int32s + paid byte.
	PaymentFrameLen = NoticeIDLen + FlightNumberLen + AircraftTypeLen + 8 + 1
)

var ErrShortFrame = errors.New("Partial frame on stream")

// ViolationRecord is the frame the radar writes to the AVN generator for
// each detected speed violation.
type ViolationRecord struct {
	FlightNumber string
	Airline      string
	Speed        int32
	MinAllowed   int32
	MaxAllowed   int32
}

// PaymentRecord is the frame shape shared by the notice stream (generator
// to portal), the payment-request stream (portal to payment service), and
// the payment-confirmation stream (payment service to generator).
type PaymentRecord struct {
	NoticeID     string
	FlightNumber string
	AircraftType string
	AmountDue    int32
	AmountPaid   int32
	Paid         bool
}

// putPadded copies s into the fixed-width field dst, NUL-padding the
// remainder.  Strings longer than the field (less the terminating NUL) are
// truncated rather than rejected; the writer side owns its identifiers and
// never generates over-long ones.
func putPadded(dst []byte, s string) {
	n := copy(dst[:len(dst)-1], s)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

// cstring returns the string up to the first NUL in b.
func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}

func (v *ViolationRecord) append(buf []byte) []byte {
	var flight [FlightNumberLen]byte
	var airline [AirlineLen]byte
	putPadded(flight[:], v.FlightNumber)
	putPadded(airline[:], v.Airline)
	buf = append(buf, flight[:]...)
	buf = append(buf, airline[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(v.Speed))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(v.MinAllowed))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(v.MaxAllowed))
	return buf
}

// WriteViolation writes one violation frame.  A short write leaves the
// stream misaligned, so the error is returned for the caller to log; the
// frame is not retried.
func WriteViolation(w io.Writer, v ViolationRecord) error {
	buf := v.append(make([]byte, 0, ViolationFrameLen))
	_, err := w.Write(buf)
	return err
}

// ReadViolation reads one violation frame.  A partial frame yields
// ErrShortFrame; EOF at a frame boundary is reported as io.EOF so readers
// can distinguish peer exit from a torn frame.
func ReadViolation(r io.Reader) (ViolationRecord, error) {
	var buf [ViolationFrameLen]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return ViolationRecord{}, ErrShortFrame
		}
		return ViolationRecord{}, err
	}

	return ViolationRecord{
		FlightNumber: cstring(buf[:FlightNumberLen]),
		Airline:      cstring(buf[FlightNumberLen : FlightNumberLen+AirlineLen]),
		Speed:        int32(binary.LittleEndian.Uint32(buf[FlightNumberLen+AirlineLen:])),
		MinAllowed:   int32(binary.LittleEndian.Uint32(buf[FlightNumberLen+AirlineLen+4:])),
		MaxAllowed:   int32(binary.LittleEndian.Uint32(buf[FlightNumberLen+AirlineLen+8:])),
	}, nil
}

func (p *PaymentRecord) append(buf []byte) []byte {
	var id [NoticeIDLen]byte
	var flight [FlightNumberLen]byte
	var actype [AircraftTypeLen]byte
	putPadded(id[:], p.NoticeID)
	putPadded(flight[:], p.FlightNumber)
	putPadded(actype[:], p.AircraftType)
	buf = append(buf, id[:]...)
	buf = append(buf, flight[:]...)
	buf = append(buf, actype[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(p.AmountDue))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(p.AmountPaid))
	if p.Paid {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	return buf
}

// WritePayment writes one payment frame; used for notice updates, payment
// requests, and payment confirmations alike.
func WritePayment(w io.Writer, p PaymentRecord) error {
	buf := p.append(make([]byte, 0, PaymentFrameLen))
	_, err := w.Write(buf)
	return err
}

// ReadPayment reads one payment frame, with the same partial-frame
// semantics as ReadViolation.
func ReadPayment(r io.Reader) (PaymentRecord, error) {
	var buf [PaymentFrameLen]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return PaymentRecord{}, ErrShortFrame
		}
		return PaymentRecord{}, err
	}

	off := 0
	id := cstring(buf[:NoticeIDLen])
	off += NoticeIDLen
	flight := cstring(buf[off : off+FlightNumberLen])
	off += FlightNumberLen
	actype := cstring(buf[off : off+AircraftTypeLen])
	off += AircraftTypeLen

	return PaymentRecord{
		NoticeID:     id,
		FlightNumber: flight,
		AircraftType: actype,
		AmountDue:    int32(binary.LittleEndian.Uint32(buf[off:])),
		AmountPaid:   int32(binary.LittleEndian.Uint32(buf[off+4:])),
		Paid:         buf[off+8] != 0,
	}, nil
}
