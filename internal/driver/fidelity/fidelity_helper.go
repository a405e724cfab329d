// internal/driver/fidelity/fidelity_helper.go
package fidelity

import (
	"unicode/utf8"

	"go.uber.org/zap"

	"fidelity-driver/internal/protocol"
	"fidelity-driver/internal/utils"
)

// SendCommand writes cmd and collects the response: lines are read and concatenated until
// a read returns nothing. ok is false when there is no transport, the write fails or no
// bytes arrived. The read happens even when expectResponse is false; those bytes are
// dropped undecoded. Only a response that is not valid UTF-8 yields an error.
func (d *Driver) SendCommand(cmd []byte, expectResponse bool) (resp string, ok bool, err error) {
	name := commandName(cmd)
	if d.transport == nil {
		d.logger.Debug("No transport, command dropped", zap.String("command", name))
		return "", false, nil
	}

	op := utils.NewOperationLogger(d.logger.Logger, name)
	op.Start(zap.String("port", d.port), zap.Bool("expect_response", expectResponse))

	if _, err := d.transport.Write(cmd); err != nil {
		op.Error(err)
		return "", false, nil
	}

	raw := d.readResponse(op)
	switch {
	case len(raw) == 0:
		op.Success(zap.Bool("response", false))
		return "", false, nil
	case !expectResponse:
		op.Success(zap.Int("discarded_bytes", len(raw)))
		return "", false, nil
	case !utf8.Valid(raw):
		err := &CommandError{Command: name, Err: ErrDecode}
		op.Error(err, zap.Binary("response", raw))
		return "", false, err
	}

	op.Success(zap.Int("response_bytes", len(raw)))
	return string(raw), true, nil
}

// readResponse accumulates lines until an empty read. A read error ends the response
// with whatever arrived before it.
func (d *Driver) readResponse(op *utils.OperationLogger) []byte {
	var msg []byte
	for {
		line, err := d.transport.ReadLine()
		msg = append(msg, line...)
		if err != nil {
			op.Error(err, zap.Int("partial_bytes", len(msg)))
			return msg
		}
		if len(line) == 0 {
			return msg
		}
	}
}

// closeTransport drops the held transport, ignoring close errors.
func (d *Driver) closeTransport() {
	if d.transport == nil {
		return
	}
	if err := d.transport.Close(); err != nil {
		d.logger.Debug("Ignoring transport close error", zap.String("port", d.port), zap.Error(err))
	}
	d.transport = nil
	d.verified = false
}

func closeQuietly(t protocol.Transport) {
	_ = t.Close()
}
