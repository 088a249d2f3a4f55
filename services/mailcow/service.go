package mailcow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/byteshifted/mailpanel/config"
	"github.com/byteshifted/mailpanel/interfaces"
	er "github.com/byteshifted/mailpanel/internal/errors"
	"github.com/byteshifted/mailpanel/internal/logger"
	"github.com/byteshifted/mailpanel/internal/tracing"
)

// mailcowResponse is the envelope mailcow wraps every mutating call in.
// Msg is a string on some endpoints and an array on others.
type mailcowResponse struct {
	Type string          `json:"type"`
	Msg  json.RawMessage `json:"msg"`
}

type mailcowService struct {
	log        logger.Logger
	cfg        *config.MailcowConfig
	httpClient *http.Client
}

func NewMailcowService(log logger.Logger, cfg *config.MailcowConfig) interfaces.MailcowService {
	return &mailcowService{
		log: log,
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *mailcowService) makeRequest(ctx context.Context, method, endpoint string, payload interface{}) ([]byte, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowService.makeRequest")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("method", method, "endpoint", endpoint)

	// Fail fast before touching the network when the key is not configured.
	if s.cfg.ApiKey == "" {
		tracing.TraceErr(span, er.ErrMailcowNotConfigured)
		return nil, er.ErrMailcowNotConfigured
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	url := strings.TrimSuffix(s.cfg.ApiUrl, "/") + endpoint
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", s.cfg.ApiKey)
	req.Header.Set("X-Request-Id", uuid.New().String())
	req = tracing.InjectSpanContextIntoHTTPRequest(req, span)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err = errors.Errorf("mailcow api error: %d %s", resp.StatusCode, string(respBody))
		tracing.TraceErr(span, err)
		return nil, err
	}

	return respBody, nil
}

// checkResponse surfaces the application-level failure marker mailcow uses
// even on HTTP 200 responses.
func checkResponse(body []byte, operation string) error {
	var envelope []mailcowResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return errors.Wrapf(err, "failed to %s: unexpected mailcow response", operation)
	}
	if len(envelope) == 0 {
		return errors.Errorf("failed to %s: empty mailcow response", operation)
	}
	if envelope[0].Type != "success" {
		return errors.Errorf("failed to %s: %s", operation, string(envelope[0].Msg))
	}
	return nil
}

func (s *mailcowService) CreateDomain(ctx context.Context, name string) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowService.CreateDomain")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("domain", name)

	payload := map[string]interface{}{
		"domain": name,
		"active": true,
	}

	body, err := s.makeRequest(ctx, http.MethodPost, "/add/domain", payload)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}
	if err := checkResponse(body, "create domain"); err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}

	// The domain name is the external identifier.
	return name, nil
}

func (s *mailcowService) DeleteDomain(ctx context.Context, name string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowService.DeleteDomain")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("domain", name)

	body, err := s.makeRequest(ctx, http.MethodPost, "/delete/domain", []string{name})
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if err := checkResponse(body, "delete domain"); err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	return nil
}

func (s *mailcowService) CreateMailbox(ctx context.Context, localPart, domain, password string, quota int, displayName string) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowService.CreateMailbox")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("local_part", localPart, "domain", domain)

	payload := map[string]interface{}{
		"local_part": localPart,
		"domain":     domain,
		"name":       displayName,
		"password":   password,
		"quota":      quota,
		"active":     true,
	}

	body, err := s.makeRequest(ctx, http.MethodPost, "/add/mailbox", payload)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}
	if err := checkResponse(body, "create mailbox"); err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}

	// The canonical address is the external identifier.
	return fmt.Sprintf("%s@%s", localPart, domain), nil
}

func (s *mailcowService) UpdateMailbox(ctx context.Context, email string, patch *interfaces.MailcowMailboxPatch) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowService.UpdateMailbox")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("email", email)
	tracing.LogObjectAsJson(span, "patch", patch)

	payload := map[string]interface{}{
		"items": []string{email},
		"attr":  patch,
	}

	body, err := s.makeRequest(ctx, http.MethodPost, "/edit/mailbox", payload)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if err := checkResponse(body, "update mailbox"); err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	return nil
}

func (s *mailcowService) DeleteMailbox(ctx context.Context, email string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowService.DeleteMailbox")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("email", email)

	body, err := s.makeRequest(ctx, http.MethodPost, "/delete/mailbox", []string{email})
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if err := checkResponse(body, "delete mailbox"); err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	return nil
}

func (s *mailcowService) CreateAlias(ctx context.Context, address, destination string) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowService.CreateAlias")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("address", address)

	payload := map[string]interface{}{
		"address": address,
		"goto":    destination,
		"active":  true,
	}

	body, err := s.makeRequest(ctx, http.MethodPost, "/add/alias", payload)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}
	if err := checkResponse(body, "create alias"); err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}

	return address, nil
}

func (s *mailcowService) UpdateAlias(ctx context.Context, address string, patch *interfaces.MailcowAliasPatch) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowService.UpdateAlias")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("address", address)
	tracing.LogObjectAsJson(span, "patch", patch)

	payload := map[string]interface{}{
		"items": []string{address},
		"attr":  patch,
	}

	body, err := s.makeRequest(ctx, http.MethodPost, "/edit/alias", payload)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if err := checkResponse(body, "update alias"); err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	return nil
}

func (s *mailcowService) DeleteAlias(ctx context.Context, address string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowService.DeleteAlias")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("address", address)

	body, err := s.makeRequest(ctx, http.MethodPost, "/delete/alias", []string{address})
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if err := checkResponse(body, "delete alias"); err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	return nil
}

// GetMailboxUsage degrades to zero usage on any failure; it never blocks or
// fails the operation that asked for it.
func (s *mailcowService) GetMailboxUsage(ctx context.Context, email string) interfaces.MailboxUsage {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowService.GetMailboxUsage")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("email", email)

	usage := interfaces.MailboxUsage{}

	body, err := s.makeRequest(ctx, http.MethodGet, "/get/mailbox/"+email, nil)
	if err != nil {
		tracing.TraceErr(span, err)
		s.log.Warnf("Failed to get mailbox usage for %s: %v", email, err)
		return usage
	}

	var details struct {
		QuotaUsed int64 `json:"quota_used"`
		Quota     int64 `json:"quota"`
	}
	if err := json.Unmarshal(body, &details); err != nil {
		tracing.TraceErr(span, err)
		s.log.Warnf("Failed to parse mailbox usage for %s: %v", email, err)
		return usage
	}

	usage.Used = details.QuotaUsed
	usage.Quota = details.Quota
	return usage
}
