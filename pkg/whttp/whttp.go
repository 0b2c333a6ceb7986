// Package whttp is a thin wrapper around the HTTP client shared by all
// ComplyPoint API packages. It keeps request construction in one place:
// auth header, JSON encoding, proxy wiring and the error taxonomy mapping.
package whttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/complypoint/complyctl/pkg/apierr"
)

type WHTTPHeader struct {
	Name  string
	Value string
}

type WHTTPReq struct {
	URL     string
	Method  string
	Headers []WHTTPHeader
	// Body is JSON-encoded when non-nil. RawBody wins when both are set.
	Body        interface{}
	RawBody     []byte
	ContentType string
}

type WHTTPRes struct {
	StatusCode  int
	BodyString  string
	BodyBytes   []byte
	Disposition string
	ContentType string
}

// Client carries the base URL and bearer token for one backend. The embedded
// retryable client is configured with RetryMax=0: nothing in this product is
// retried automatically, every failure is terminal for the attempt.
type Client struct {
	BaseURL string
	Token   string
	http    *retryablehttp.Client
}

func NewClient(baseURL, token, proxy string) (*Client, error) {
	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryMax = 0

	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %v", err)
		}
		rc.HTTPClient.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	}

	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		http:    rc,
	}, nil
}

// Do sends the request and maps non-2xx statuses through apierr.FromResponse.
// op names the operation for error messages, path is resolved against BaseURL
// unless absolute.
func (c *Client) Do(ctx context.Context, op string, wReq *WHTTPReq) (*WHTTPRes, error) {
	target := wReq.URL
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = c.BaseURL + target
	}

	var bodyReader io.Reader
	contentType := wReq.ContentType
	switch {
	case wReq.RawBody != nil:
		bodyReader = bytes.NewReader(wReq.RawBody)
	case wReq.Body != nil:
		encoded, err := json.Marshal(wReq.Body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", op, err)
		}
		bodyReader = bytes.NewReader(encoded)
		if contentType == "" {
			contentType = "application/json"
		}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, wReq.Method, target, bodyReader)
	if err != nil {
		return nil, &apierr.NetworkError{Op: op, Err: err}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, h := range wReq.Headers {
		req.Header.Set(h.Name, h.Value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &apierr.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apierr.NetworkError{Op: op, Err: err}
	}

	wRes := &WHTTPRes{
		StatusCode:  resp.StatusCode,
		BodyBytes:   bodyBytes,
		BodyString:  string(bodyBytes),
		Disposition: resp.Header.Get("Content-Disposition"),
		ContentType: resp.Header.Get("Content-Type"),
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return wRes, apierr.FromResponse(op, resp.StatusCode, wRes.BodyString)
	}
	return wRes, nil
}

// GetJSON fetches path and decodes the response into out.
func (c *Client) GetJSON(ctx context.Context, op, path string, out interface{}) error {
	res, err := c.Do(ctx, op, &WHTTPReq{Method: http.MethodGet, URL: path})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(res.BodyBytes, out); err != nil {
		return &apierr.NetworkError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// SendJSON issues method with a JSON body and optionally decodes the response.
func (c *Client) SendJSON(ctx context.Context, op, method, path string, body, out interface{}) error {
	res, err := c.Do(ctx, op, &WHTTPReq{Method: method, URL: path, Body: body})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(res.BodyBytes, out); err != nil {
		return &apierr.NetworkError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// UploadFile posts a single file as multipart form data under fieldName.
func (c *Client) UploadFile(ctx context.Context, op, path, fieldName, fileName, contentType string, content []byte, out interface{}) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fieldName, fileName))
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := part.Write(content); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	res, err := c.Do(ctx, op, &WHTTPReq{
		Method:      http.MethodPost,
		URL:         path,
		RawBody:     buf.Bytes(),
		ContentType: mw.FormDataContentType(),
	})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(res.BodyBytes, out); err != nil {
		return &apierr.NetworkError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
