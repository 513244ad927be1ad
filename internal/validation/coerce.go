package validation

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strconv"
)

// PollFromForm coerces form-encoded poll fields into a Record. options arrives as
// a JSON array string; an unparsable value is kept as a string so validation can
// report it.
func PollFromForm(values url.Values) Record {
	rec := Record{
		"allow_multi": values.Get("allow_multi") == "true",
	}
	copyString(rec, values, "title")
	copyString(rec, values, "description")
	if closesAt := values.Get("closes_at"); closesAt != "" {
		rec["closes_at"] = closesAt
	}

	raw := values.Get("options")
	if raw == "" {
		raw = "[]"
	}
	var options []any
	if err := json.Unmarshal([]byte(raw), &options); err != nil {
		rec["options"] = raw
	} else {
		rec["options"] = options
	}
	return rec
}

// ProfileFromForm coerces form-encoded profile fields into a Record.
func ProfileFromForm(values url.Values) Record {
	rec := Record{}
	copyString(rec, values, "name")
	copyString(rec, values, "bio")
	copyString(rec, values, "theme")
	copyString(rec, values, "language")
	for _, flag := range []string{"email_notifications", "poll_notifications", "public_profile", "show_email"} {
		if values.Has(flag) {
			rec[flag] = values.Get(flag) == "true"
		}
	}
	return rec
}

// VoteRecord coerces path or form identifiers into a Record.
func VoteRecord(pollID, optionID string) Record {
	return Record{
		"poll_id":   parseID(pollID),
		"option_id": parseID(optionID),
	}
}

// DecodeJSON decodes a JSON object body into a Record, keeping numbers exact.
func DecodeJSON(data []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func parseID(s string) any {
	if s == "" {
		return nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return s
	}
	return id
}

func copyString(rec Record, values url.Values, key string) {
	if values.Has(key) {
		rec[key] = values.Get(key)
	}
}
