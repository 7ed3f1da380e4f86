// Package registry is the HTTP client of the external sworn statement registry.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/otec/backoffice/internal/domain/compliance"
	"github.com/otec/backoffice/internal/domain/shared"
	"github.com/otec/backoffice/internal/infrastructure/telemetry"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Client implements compliance.DeclarationGateway over HTTP
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

var _ compliance.DeclarationGateway = (*Client)(nil)

// NewClient creates a registry client with the given configuration
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}, nil
}

// FetchDeclarations posts the query and returns the participant records.
// Transport failures, HTTP errors and malformed bodies are EXTERNAL_SERVICE_ERRORs.
func (c *Client) FetchDeclarations(ctx context.Context, query compliance.DeclarationQuery) ([]compliance.DeclarationRecord, error) {
	ctx, span := telemetry.StartSpan(ctx, "registry.fetch_declarations",
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute(telemetry.SpanAttrDocType, query.DocumentType),
	)
	defer span.End()

	body, err := c.doRequest(ctx, query)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	records, err := parseDeclarations(body)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrRecords, len(records))
	return records, nil
}

func (c *Client) doRequest(ctx context.Context, query compliance.DeclarationQuery) ([]byte, error) {
	courseIDs := query.CourseIDs
	if courseIDs == nil {
		courseIDs = []string{}
	}
	payload, err := json.Marshal(declarationRequest{
		LoginData: loginData{
			Username: query.Username,
			Password: query.Password,
		},
		EntityTaxID: query.EntityTaxID,
		DocType:     query.DocumentType,
		InputData:   courseIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("registry: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("registry: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, shared.NewExternalServiceError("registry request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxResponseBytes))
	if err != nil {
		return nil, shared.NewExternalServiceError("registry response could not be read", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		c.logger.Warn("Registry returned an error status",
			zap.Int("status_code", resp.StatusCode),
			zap.Int("body_bytes", len(body)),
		)
		return nil, shared.NewExternalServiceError(fmt.Sprintf("registry returned HTTP %d", resp.StatusCode), nil)
	}

	return body, nil
}

// parseDeclarations validates the response envelope and extracts the records.
// The envelope must carry status "success" (any case) and a data array.
func parseDeclarations(body []byte) ([]compliance.DeclarationRecord, error) {
	if !gjson.ValidBytes(body) {
		return nil, badResponse("body is not valid JSON")
	}

	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return nil, badResponse("body is not an object")
	}

	status := doc.Get(fieldStatus)
	if !strings.EqualFold(strings.TrimSpace(status.String()), "success") {
		if !status.Exists() {
			return nil, badResponse("missing status")
		}
		return nil, badResponse(fmt.Sprintf("status %q", status.String()))
	}

	data := doc.Get(fieldData)
	if !data.IsArray() {
		return nil, badResponse("data is not an array")
	}

	items := data.Array()
	records := make([]compliance.DeclarationRecord, 0, len(items))
	for _, item := range items {
		if !item.IsObject() {
			return nil, badResponse("data item is not an object")
		}
		records = append(records, compliance.DeclarationRecord{
			TaxID:            strings.TrimSpace(item.Get(fieldTaxID).String()),
			Name:             strings.TrimSpace(item.Get(fieldName).String()),
			Sessions:         sessionCount(item.Get(fieldSessions)),
			Status:           item.Get(fieldDeclStatus).String(),
			ExternalCourseID: strings.TrimSpace(item.Get(fieldCourseCode).String()),
		})
	}
	return records, nil
}

// sessionCount reads a number or a numeric string; anything else is 0
func sessionCount(v gjson.Result) int {
	switch v.Type {
	case gjson.Number:
		return int(v.Int())
	case gjson.String:
		n, err := strconv.Atoi(strings.TrimSpace(v.Str))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func badResponse(detail string) error {
	return shared.NewExternalServiceError("bad response: "+detail, nil)
}

// Disabled returns a gateway that fails every call. It stands in for the
// client when no registry endpoint is configured.
func Disabled() compliance.DeclarationGateway {
	return disabledGateway{}
}

type disabledGateway struct{}

func (disabledGateway) FetchDeclarations(context.Context, compliance.DeclarationQuery) ([]compliance.DeclarationRecord, error) {
	return nil, shared.NewExternalServiceError("registry endpoint is not configured", nil)
}
