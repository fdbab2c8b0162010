package gib

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/reyhansunduk/efatura-mcp-server/internal/model"
)

const soapEnvelopeNamespace = "http://schemas.xmlsoap.org/soap/envelope/"

// maxResponseSize bounds a single SOAP response
const maxResponseSize = 32 << 20

// Fault codes reported by the service in the fault detail
const (
	FaultSessionExpired = "SessionExpired"
	FaultInvalidToken   = "InvalidToken"
	FaultAuthentication = "AuthenticationFailed"
	FaultNotFound       = "InvoiceNotFound"
	FaultInvalidState   = "InvalidInvoiceState"
	FaultValidation     = "ValidationFailed"
)

type envelope struct {
	XMLName xml.Name `xml:"soap:Envelope"`
	SoapNS  string   `xml:"xmlns:soap,attr"`
	Header  *header  `xml:"soap:Header"`
	Body    body     `xml:"soap:Body"`
}

type header struct {
	Session sessionHeader
}

type sessionHeader struct {
	XMLName xml.Name
	Token   string `xml:",chardata"`
}

type body struct {
	Payload interface{}
}

type responseEnvelope struct {
	Body struct {
		Fault   *fault `xml:"Fault"`
		Content []byte `xml:",innerxml"`
	} `xml:"Body"`
}

type fault struct {
	Code   string `xml:"faultcode"`
	String string `xml:"faultstring"`
	Detail struct {
		Code    string `xml:"code"`
		Message string `xml:"message"`
	} `xml:"detail"`
}

// FaultError is a SOAP fault returned by the service
type FaultError struct {
	Operation string
	Code      string
	Message   string
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("%s fault %s: %s", e.Operation, e.Code, e.Message)
}

func (f *fault) asError(op string) *FaultError {
	code := strings.TrimSpace(f.Detail.Code)
	if code == "" {
		code = f.Code
		if i := strings.LastIndex(code, ":"); i >= 0 {
			code = code[i+1:]
		}
	}
	msg := strings.TrimSpace(f.Detail.Message)
	if msg == "" {
		msg = strings.TrimSpace(f.String)
	}
	return &FaultError{Operation: op, Code: strings.TrimSpace(code), Message: msg}
}

func isSessionFault(err error) bool {
	var fe *FaultError
	if !errors.As(err, &fe) {
		return false
	}
	return fe.Code == FaultSessionExpired || fe.Code == FaultInvalidToken
}

// roundTrip performs one SOAP exchange. Faults come back as *FaultError;
// transport and decoding failures as *model.NetworkError.
func (c *Client) roundTrip(ctx context.Context, op, token string, req, resp interface{}) error {
	env := envelope{
		SoapNS: soapEnvelopeNamespace,
		Body:   body{Payload: req},
	}
	if token != "" {
		env.Header = &header{Session: sessionHeader{
			XMLName: xml.Name{Space: Namespace, Local: "SessionToken"},
			Token:   token,
		}}
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if err := xml.NewEncoder(&buf).Encode(env); err != nil {
		return model.NewNetworkError(op, "failed to encode request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &buf)
	if err != nil {
		return model.NewNetworkError(op, "failed to build request", err)
	}
	httpReq.Header.Set("Content-Type", "text/xml; charset=utf-8")
	httpReq.Header.Set("SOAPAction", op)
	httpReq.Header.Set("Accept", "text/xml")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return model.NewNetworkError(op, "request failed", err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return model.NewNetworkError(op, "failed to read response", err)
	}

	var renv responseEnvelope
	if err := xml.Unmarshal(data, &renv); err != nil {
		if httpResp.StatusCode != http.StatusOK {
			return model.NewNetworkError(op, fmt.Sprintf("unexpected HTTP status %d", httpResp.StatusCode), nil)
		}
		return model.NewNetworkError(op, "malformed SOAP response", err)
	}

	if renv.Body.Fault != nil {
		return renv.Body.Fault.asError(op)
	}
	if httpResp.StatusCode != http.StatusOK {
		return model.NewNetworkError(op, fmt.Sprintf("unexpected HTTP status %d", httpResp.StatusCode), nil)
	}

	if resp == nil {
		return nil
	}
	if err := xml.Unmarshal(renv.Body.Content, resp); err != nil {
		return model.NewNetworkError(op, "malformed response body", err)
	}
	return nil
}

// invoke runs an authenticated operation. A session fault triggers one
// token refresh and exactly one retry.
func (c *Client) invoke(ctx context.Context, op string, req, resp interface{}) error {
	token, err := c.session(ctx)
	if err != nil {
		return err
	}

	err = c.roundTrip(ctx, op, token, req, resp)
	if !isSessionFault(err) {
		return err
	}

	c.log.Info("GİB session expired, refreshing", zap.String("operation", op))
	token, err = c.refresh(ctx, token)
	if err != nil {
		return err
	}

	err = c.roundTrip(ctx, op, token, req, resp)
	if isSessionFault(err) {
		return model.NewNetworkError(op, "session rejected again after refresh", err)
	}
	return err
}

// session returns the current token, logging in when there is none
func (c *Client) session(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.token != "" {
		return c.token, nil
	}
	return c.loginLocked(ctx)
}

// refresh replaces a stale token. When another caller already refreshed it,
// the newer token is reused without logging in again.
func (c *Client) refresh(ctx context.Context, stale string) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.token != "" && c.token != stale {
		return c.token, nil
	}
	c.token = ""
	return c.loginLocked(ctx)
}

func (c *Client) loginLocked(ctx context.Context) (string, error) {
	if err := c.creds.Check().Err(); err != nil {
		c.log.Warn("GİB login skipped, credentials unusable", zap.Error(err))
		return "", err
	}

	req := loginRequest{
		XMLName:  operation(OpLogin),
		UserID:   c.creds.Username,
		Password: c.creds.Password,
	}
	var resp loginResponse

	err := c.roundTrip(ctx, OpLogin, "", req, &resp)
	if err == nil && strings.TrimSpace(resp.Token) == "" {
		err = model.NewNetworkError(OpLogin, "login response carried no token", nil)
	}
	c.metrics.IncrementTokenRefresh(err == nil)

	if err != nil {
		var fe *FaultError
		if errors.As(err, &fe) {
			// Fault messages may echo the submitted user id.
			err = model.NewNetworkError(OpLogin, "GİB rejected the session login ("+fe.Code+")", nil)
		}
		c.log.Warn("GİB login failed", zap.Error(err))
		return "", err
	}

	c.token = strings.TrimSpace(resp.Token)
	c.log.Debug("GİB session established")
	return c.token, nil
}

// translate maps remaining faults onto the gateway error taxonomy
func translate(err error, invoiceID string) error {
	var ne *model.NetworkError
	if errors.As(err, &ne) {
		return err
	}
	var fe *FaultError
	if !errors.As(err, &fe) {
		return err
	}
	switch fe.Code {
	case FaultNotFound:
		return model.NewNotFoundError(invoiceID)
	case FaultInvalidState:
		return model.NewStateError(invoiceID, model.StatusCancelled, model.StatusCancelled)
	case FaultValidation:
		return model.NewValidationError("invoice", nil, "backend", fe.Message)
	default:
		return model.NewNetworkError(fe.Operation, "service fault "+fe.Code+": "+fe.Message, nil)
	}
}
