package contentstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"credo/internal/platform/tracer"
)

const DefaultPinataAPIURL = "https://api.pinata.cloud"

// PinataConfig configures a PinataPinner.
type PinataConfig struct {
	APIURL     string
	JWT        string
	Timeout    time.Duration
	HTTPClient HTTPDoer
	Metrics    *Metrics
	Tracer     tracer.Tracer
	Logger     *slog.Logger
}

// PinataPinner uploads documents through the pinning service's file endpoint.
// The file endpoint stores the bytes verbatim, which keeps the anchored digest
// valid for what the gateway later serves.
type PinataPinner struct {
	apiURL  string
	jwt     string
	client  HTTPDoer
	metrics *Metrics
	tracer  tracer.Tracer
	logger  *slog.Logger
}

func NewPinataPinner(cfg PinataConfig) *PinataPinner {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultPinataAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Tracer == nil {
		cfg.Tracer = tracer.NewNoop()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &PinataPinner{
		apiURL:  strings.TrimRight(cfg.APIURL, "/"),
		jwt:     cfg.JWT,
		client:  cfg.HTTPClient,
		metrics: cfg.Metrics,
		tracer:  cfg.Tracer,
		logger:  cfg.Logger,
	}
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

type pinMetadata struct {
	Name string `json:"name"`
}

// ErrPinFailed wraps every upload failure.
var ErrPinFailed = errors.New("pin failed")

// Pin uploads data as a single file named name and returns the content identifier.
func (p *PinataPinner) Pin(ctx context.Context, name string, data []byte) (contentID string, err error) {
	ctx, span := p.tracer.Start(ctx, tracer.SpanContentPin, tracer.Int64(tracer.AttrBytes, int64(len(data))))
	defer func() {
		span.End(err)
		if err != nil {
			p.metrics.recordPin("error")
			p.logger.ErrorContext(ctx, "pin upload failed", "name", name, "error", err)
			return
		}
		p.metrics.recordPin("ok")
	}()

	body, contentType, err := multipartBody(name, data)
	if err != nil {
		return "", fmt.Errorf("%w: build upload: %w", ErrPinFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL+"/pinning/pinFileToIPFS", body)
	if err != nil {
		return "", fmt.Errorf("%w: create request: %w", ErrPinFailed, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+p.jwt)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: execute request: %w", ErrPinFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("%w: read response: %w", ErrPinFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d: %s", ErrPinFailed, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out pinResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", ErrPinFailed, err)
	}
	contentID, err = ValidateCID(out.IpfsHash)
	if err != nil {
		return "", fmt.Errorf("%w: service returned %q: %w", ErrPinFailed, out.IpfsHash, err)
	}
	span.SetAttributes(tracer.String(tracer.AttrCID, contentID))
	return contentID, nil
}

func multipartBody(name string, data []byte) (*bytes.Buffer, string, error) {
	if name == "" {
		name = "credential.json"
	}
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	meta, err := json.Marshal(pinMetadata{Name: name})
	if err != nil {
		return nil, "", err
	}
	if err := w.WriteField("pinataMetadata", string(meta)); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("pinataOptions", `{"cidVersion":1}`); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

var _ Pinner = (*PinataPinner)(nil)
