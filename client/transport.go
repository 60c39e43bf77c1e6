package client

import (
	"bufio"
	"errors"
	"io"
	"net/http"
)

// errEmptyResponse is reported when the gateway answered a request with an empty body.
var errEmptyResponse = errors.New("client: empty response")

// HTTPClient returns a copy of base whose transport reports empty gateway replies as such.
//
// A nil base uses http.DefaultClient. Clients created with New over an RPC connection that
// does not use this transport report empty replies as errors.
func HTTPClient(base *http.Client) *http.Client {
	if base == nil {
		base = http.DefaultClient
	}
	hc := *base
	transport := hc.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	hc.Transport = &emptyReplyTransport{base: transport}
	return &hc
}

type emptyReplyTransport struct {
	base http.RoundTripper
}

func (t *emptyReplyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rsp, err := t.base.RoundTrip(req)
	if err != nil || rsp.StatusCode != http.StatusOK {
		return rsp, err
	}

	br := bufio.NewReader(rsp.Body)
	if _, err = br.Peek(1); err == io.EOF {
		rsp.Body.Close()
		rsp.Body = io.NopCloser(emptyBody{})
		return rsp, nil
	}
	rsp.Body = &bufferedBody{Reader: br, Closer: rsp.Body}
	return rsp, nil
}

type emptyBody struct{}

func (emptyBody) Read([]byte) (int, error) {
	return 0, errEmptyResponse
}

type bufferedBody struct {
	io.Reader
	io.Closer
}
