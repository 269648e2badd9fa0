package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// Sessions are stored as a compact binary blob. The encoder is append-only:
// new schema versions add fields but never reinterpret old ones.
const schemaVersionCurrent = 1

// Encode serializes a session. The session ID is not part of the blob; it
// lives in the storage key and is restored on decode.
func Encode(s *Session) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(schemaVersionCurrent)

	if err := writeShortString(&buf, s.UserID); err != nil {
		return nil, errors.New("userID too long")
	}
	if err := writeShortString(&buf, s.Role); err != nil {
		return nil, errors.New("role too long")
	}
	if err := writeString(&buf, s.IPAddress); err != nil {
		return nil, errors.New("ip address too long")
	}
	if err := writeString(&buf, s.UserAgent); err != nil {
		return nil, errors.New("user agent too long")
	}

	if err := binary.Write(&buf, binary.BigEndian, s.TokenVersion); err != nil {
		return nil, err
	}

	if s.Active {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}

	for _, ts := range []int64{s.CreatedAt, s.LastActivity, s.ExpiresAt} {
		if err := binary.Write(&buf, binary.BigEndian, ts); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// Decode parses a session blob produced by [Encode].
func Decode(data []byte) (*Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != schemaVersionCurrent {
		return nil, errors.New("unsupported session schema version")
	}

	s := &Session{}

	if s.UserID, err = readShortString(reader); err != nil {
		return nil, err
	}
	if s.Role, err = readShortString(reader); err != nil {
		return nil, err
	}
	if s.IPAddress, err = readString(reader); err != nil {
		return nil, err
	}
	if s.UserAgent, err = readString(reader); err != nil {
		return nil, err
	}

	if err := binary.Read(reader, binary.BigEndian, &s.TokenVersion); err != nil {
		return nil, err
	}

	active, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	s.Active = active == 1

	if err := binary.Read(reader, binary.BigEndian, &s.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &s.LastActivity); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &s.ExpiresAt); err != nil {
		return nil, err
	}

	return s, nil
}

func writeShortString(buf *bytes.Buffer, s string) error {
	if len(s) > math.MaxUint8 {
		return errors.New("string too long")
	}
	buf.WriteByte(byte(len(s)))
	buf.WriteString(s)
	return nil
}

func readShortString(r *bytes.Reader) (string, error) {
	n, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	raw := make([]byte, n)
	if _, err := io.ReadFull(r, raw); err != nil {
		return "", err
	}
	return string(raw), nil
}

func writeString(buf *bytes.Buffer, s string) error {
	if len(s) > math.MaxUint16 {
		return errors.New("string too long")
	}
	if err := binary.Write(buf, binary.BigEndian, uint16(len(s))); err != nil {
		return err
	}
	buf.WriteString(s)
	return nil
}

func readString(r *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	raw := make([]byte, n)
	if _, err := io.ReadFull(r, raw); err != nil {
		return "", err
	}
	return string(raw), nil
}
