package core

import (
	"context"
	"errors"

	"dhtcode-go/bus"
	"dhtcode-go/drivers/dht11"
	"dhtcode-go/errcode"
	"dhtcode-go/types"
)

// MapDriverErr names a driver or context error with its bus code. Errors that
// already carry a code pass through errcode.Of.
func MapDriverErr(err error) errcode.Code {
	switch {
	case err == nil:
		return errcode.OK
	case errors.Is(err, dht11.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return errcode.Timeout
	case errors.Is(err, dht11.ErrChecksum):
		return errcode.ChecksumError
	case errors.Is(err, context.Canceled):
		return errcode.Cancelled
	}
	return errcode.Of(err)
}

// reply answers a control request. A nil err is {ok:true}; anything else is
// mapped to a code, so driver timeouts and checksum failures keep their names.
func (h *HAL) reply(m *bus.Message, err error) {
	if !m.CanReply() {
		return
	}
	if err == nil {
		h.conn.Reply(m, types.OKReply{OK: true}, false)
		return
	}
	code := MapDriverErr(err)
	if code == errcode.OK {
		code = errcode.Error
	}
	h.conn.Reply(m, types.ErrorReply{OK: false, Error: string(code)}, false)
}
