package check

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
)

type httpCheck struct {
	client *http.Client
	url    string
	expect []int
}

// NewHTTP constructs an evaluator that issues a GET request on each
// evaluation. An unexpected status code or a transport failure requests
// termination. When expect is empty any 2xx or 3xx status is accepted.
func NewHTTP(url string, expect []int) (Evaluator, error) {
	if url == "" {
		return nil, errors.New("check: http requires a url")
	}
	return &httpCheck{
		client: &http.Client{},
		url:    url,
		expect: append([]int(nil), expect...),
	}, nil
}

func (h *httpCheck) Evaluate(ctx context.Context, obs Observation) Verdict {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return Errorf("http check request: %v", err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return Errorf("http check: %v", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if len(h.expect) > 0 {
		if !slices.Contains(h.expect, resp.StatusCode) {
			return Kill(fmt.Sprintf("http check status=%d", resp.StatusCode))
		}
		return Continue(nil)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return Kill(fmt.Sprintf("http check status=%d", resp.StatusCode))
	}
	return Continue(nil)
}
