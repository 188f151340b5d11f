package request

import (
	"bytes"
	"encoding/json"
)

type envelopeShape int

const (
	shapeUnknown envelopeShape = iota
	// shapeCurrent is {success, data, message}.
	shapeCurrent
	// shapeLegacy is {code, msg, data}, kept for older deployments.
	shapeLegacy
)

const legacySuccessCode = 200

type envelope struct {
	shape   envelopeShape
	ok      bool
	code    int
	message string
	data    json.RawMessage
}

type currentEnvelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type legacyEnvelope struct {
	Code *int            `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// parseEnvelope detects which envelope a response body uses. The current
// shape wins when a body carries both a success flag and a code.
func parseEnvelope(body []byte) envelope {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return envelope{}
	}

	var cur currentEnvelope
	if err := json.Unmarshal(body, &cur); err == nil && cur.Success != nil {
		return envelope{
			shape:   shapeCurrent,
			ok:      *cur.Success,
			message: cur.Message,
			data:    cur.Data,
		}
	}

	var legacy legacyEnvelope
	if err := json.Unmarshal(body, &legacy); err == nil && legacy.Code != nil {
		return envelope{
			shape:   shapeLegacy,
			ok:      *legacy.Code == legacySuccessCode,
			code:    *legacy.Code,
			message: legacy.Msg,
			data:    legacy.Data,
		}
	}
	return envelope{}
}

func (e envelope) recognised() bool {
	return e.shape != shapeUnknown
}

// hasData reports whether the envelope carries a payload worth decoding.
func (e envelope) hasData() bool {
	d := bytes.TrimSpace(e.data)
	return len(d) > 0 && !bytes.Equal(d, []byte("null"))
}
