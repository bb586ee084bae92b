package audit

import (
	"encoding/json"
	"errors"
	"fmt"
)

// seal fills rec.RecordHash and returns the encoded record. The hash covers
// the canonical form of every other field.
func seal(rec *Record) ([]byte, error) {
	rec.RecordHash = ""
	body, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	h, err := hashBody(body)
	if err != nil {
		return nil, err
	}
	rec.RecordHash = h
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return payload, nil
}

func hashBody(body []byte) (string, error) {
	canon, err := CanonicalizeJSON(body)
	if err != nil {
		return "", err
	}
	return digest(canon), nil
}

// chainLink is the part of a stored record needed to walk the chain.
type chainLink struct {
	Sequence   uint64
	PrevHash   string
	RecordHash string
}

var errHashMismatch = errors.New("record hash does not match contents")

// inspect recomputes a stored record's hash from its payload as written,
// without round-tripping through Record, so fields unknown to this version
// are still covered.
func inspect(payload []byte) (chainLink, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return chainLink{}, fmt.Errorf("decode record: %w", err)
	}

	var link chainLink
	if err := unmarshalField(fields, "sequence", &link.Sequence); err != nil {
		return chainLink{}, err
	}
	if err := unmarshalField(fields, "prev_hash", &link.PrevHash); err != nil {
		return chainLink{}, err
	}
	if err := unmarshalField(fields, "record_hash", &link.RecordHash); err != nil {
		return chainLink{}, err
	}

	delete(fields, "record_hash")
	body, err := json.Marshal(fields)
	if err != nil {
		return chainLink{}, fmt.Errorf("encode record body: %w", err)
	}
	got, err := hashBody(body)
	if err != nil {
		return chainLink{}, err
	}
	if got != link.RecordHash {
		return link, errHashMismatch
	}
	return link, nil
}

func unmarshalField(fields map[string]json.RawMessage, name string, dst any) error {
	raw, ok := fields[name]
	if !ok {
		return fmt.Errorf("record has no %s", name)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func decodeRecord(payload []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &rec, nil
}
