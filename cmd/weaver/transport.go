package main

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/apiweaver/weaver/httpx"
	"github.com/apiweaver/weaver/invoke"
	"github.com/apiweaver/weaver/jsonenc"
)

// newTransport builds the real net/http-backed invoke.Transport the
// CLI wires into the Invoker: send the rendered call, report a
// transport failure as Success=false rather than a Go error so the
// engine treats an unreachable target like any other unsuccessful
// call (spec §7).
func newTransport(client *http.Client, baseURL string) invoke.Transport {
	return func(ctx context.Context, call httpx.HTTPCall) invoke.Result {
		req, err := buildRequest(ctx, baseURL, call)
		if err != nil {
			return invoke.Result{Success: false}
		}

		resp, err := client.Do(req)
		if err != nil {
			return invoke.Result{Success: false}
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return invoke.Result{Success: false, StatusCode: resp.StatusCode}
		}

		return invoke.Result{
			Success:    true,
			StatusCode: resp.StatusCode,
			Payload:    string(body),
		}
	}
}

func buildRequest(ctx context.Context, baseURL string, call httpx.HTTPCall) (*http.Request, error) {
	full := baseURL + call.URL
	if len(call.Query) > 0 {
		q := url.Values{}
		for k, v := range call.Query {
			q.Set(k, v)
		}
		full += "?" + q.Encode()
	}

	method := call.Method.String()
	var body io.Reader
	contentType := ""

	switch {
	case len(call.FileData) > 0:
		buf := &bytes.Buffer{}
		mw := multipart.NewWriter(buf)
		for k, v := range call.FormData {
			_ = mw.WriteField(k, v)
		}
		for k, v := range call.FileData {
			fw, err := mw.CreateFormFile(k, k)
			if err != nil {
				return nil, err
			}
			if _, err := fw.Write(v); err != nil {
				return nil, err
			}
		}
		if err := mw.Close(); err != nil {
			return nil, err
		}
		body = buf
		contentType = mw.FormDataContentType()

	case len(call.FormData) > 0:
		form := url.Values{}
		for k, v := range call.FormData {
			form.Set(k, v)
		}
		body = strings.NewReader(form.Encode())
		contentType = "application/x-www-form-urlencoded"

	case len(call.Body) > 0:
		data, err := jsonenc.Marshal(call.Body)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, full, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

// newHTTPClient builds the shared client the Invoker sends through,
// bounded by timeout so a stalled target can't hang an exploration
// forever.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
