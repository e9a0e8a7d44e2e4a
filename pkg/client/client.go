package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/diwise/iot-bin-routing/internal/pkg/infrastructure/logging"
	"github.com/diwise/iot-bin-routing/pkg/types"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
)

var ErrBinNotFound = errors.New("bin not found")

// FetchError is returned when the bins API could not be reached or returned
// something other than a successful JSON response.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s failed with status code %d: %s", e.URL, e.StatusCode, e.Err.Error())
	}
	return fmt.Sprintf("fetch %s failed: %s", e.URL, e.Err.Error())
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type BinsClient interface {
	FetchBins(ctx context.Context) ([]types.Bin, error)
	GetBin(ctx context.Context, binID string) (types.Bin, error)
	CreateBin(ctx context.Context, bin types.Bin) error
	SetStatus(ctx context.Context, binID string, field types.StatusField, status string) error
}

type binsClient struct {
	url        string
	httpClient http.Client
}

var tracer = otel.Tracer("bins-client")

func NewBinsClient(binsApiUrl string) BinsClient {
	return &binsClient{
		url: strings.TrimSuffix(binsApiUrl, "/"),
		httpClient: http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *binsClient) FetchBins(ctx context.Context) ([]types.Bin, error) {
	var err error
	ctx, span := tracer.Start(ctx, "fetch-bins")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	bins := []types.Bin{}
	err = c.get(ctx, c.url+"/api/v0/bins", &bins)
	if err != nil {
		return nil, err
	}

	return bins, nil
}

func (c *binsClient) GetBin(ctx context.Context, binID string) (types.Bin, error) {
	var err error
	ctx, span := tracer.Start(ctx, "get-bin")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	bin := types.Bin{}
	err = c.get(ctx, c.url+"/api/v0/bins/"+url.PathEscape(binID), &bin)
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) && fe.StatusCode == http.StatusNotFound {
			err = ErrBinNotFound
		}
		return types.Bin{}, err
	}

	return bin, nil
}

func (c *binsClient) CreateBin(ctx context.Context, bin types.Bin) error {
	var err error
	ctx, span := tracer.Start(ctx, "create-bin")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	b, err := json.Marshal(bin)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/api/v0/bins", bytes.NewReader(b))
	if err != nil {
		err = fmt.Errorf("failed to create http request: %w", err)
		return err
	}
	req.Header.Add("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = &FetchError{URL: req.URL.String(), Err: err}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		err = &FetchError{URL: req.URL.String(), StatusCode: resp.StatusCode, Err: fmt.Errorf("bin was not created")}
		return err
	}

	return nil
}

func (c *binsClient) SetStatus(ctx context.Context, binID string, field types.StatusField, status string) error {
	var err error
	ctx, span := tracer.Start(ctx, "set-bin-status")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	log := logging.GetFromContext(ctx)
	log.Debug().Msgf("setting %s to %s on bin %s", field, status, binID)

	u := fmt.Sprintf("%s/api/v0/status/%s/%s/%s", c.url, url.PathEscape(binID), url.PathEscape(string(field)), url.PathEscape(status))

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, nil)
	if err != nil {
		err = fmt.Errorf("failed to create http request: %w", err)
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = &FetchError{URL: u, Err: err}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		err = ErrBinNotFound
		return err
	}

	if resp.StatusCode != http.StatusOK {
		err = &FetchError{URL: u, StatusCode: resp.StatusCode, Err: fmt.Errorf("status was not updated")}
		return err
	}

	return nil
}

func (c *binsClient) get(ctx context.Context, u string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Add("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &FetchError{URL: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &FetchError{URL: u, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected response")}
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &FetchError{URL: u, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	err = json.Unmarshal(respBody, result)
	if err != nil {
		return &FetchError{URL: u, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to unmarshal response body: %w", err)}
	}

	return nil
}
