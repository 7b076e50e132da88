package check

import (
	"context"
	"errors"
	"net"
)

type tcpCheck struct {
	address string
	dialer  func(ctx context.Context, network, address string) (net.Conn, error)
}

// NewTCP constructs an evaluator that dials the supplied address on each
// evaluation and requests termination when the dial fails.
func NewTCP(address string) (Evaluator, error) {
	if address == "" {
		return nil, errors.New("check: tcp requires an address")
	}
	return &tcpCheck{
		address: address,
		dialer:  (&net.Dialer{}).DialContext,
	}, nil
}

func (t *tcpCheck) Evaluate(ctx context.Context, obs Observation) Verdict {
	conn, err := t.dialer(ctx, "tcp", t.address)
	if err != nil {
		return Kill("tcp check dial " + t.address + ": " + err.Error())
	}
	_ = conn.Close()
	return Continue(nil)
}
