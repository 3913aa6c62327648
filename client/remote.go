package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/aleph-zero/lifo/service/reverse"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"io"
	"net/http"
	"strings"
	"time"
)

// RemoteService reverses text on a lifo server.
type RemoteService struct {
	client   http.Client
	endpoint string
}

func NewRemoteService(endpoint string) *RemoteService {
	return &RemoteService{
		client: http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   time.Second * 30,
		},
		endpoint: endpoint,
	}
}

type errorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

func (rs *RemoteService) ReverseReader(ctx context.Context, r io.Reader) (*reverse.Result, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, reverse.Error{ErrorCode: reverse.ReadFailure, Message: fmt.Sprintf("reading input: %s", err), Err: err}
	}
	return rs.Reverse(ctx, line)
}

func (rs *RemoteService) Reverse(ctx context.Context, text string) (*reverse.Result, error) {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}

	tr := otel.Tracer(serviceName)
	traceCtx, span := tr.Start(ctx, "client.reverse", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	req, err := http.NewRequestWithContext(traceCtx, http.MethodGet, rs.endpoint, nil)
	if err != nil {
		return nil, err
	}

	q := req.URL.Query()
	q.Add("q", text)
	req.URL.RawQuery = q.Encode()

	res, err := rs.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		var body errorResponse
		_ = json.NewDecoder(res.Body).Decode(&body)
		if res.StatusCode == http.StatusBadRequest {
			return nil, reverse.Error{ErrorCode: reverse.NoInput, Message: body.Error}
		}
		return nil, fmt.Errorf("server returned %d: %s", res.StatusCode, body.Error)
	}

	var result reverse.Result
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}
