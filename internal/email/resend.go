package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultResendEndpoint is the Resend send-email API.
const DefaultResendEndpoint = "https://api.resend.com/emails"

// resendClient is the concrete Sender backed by the Resend API.
type resendClient struct {
	apiKey     string
	fromAddr   string // e.g. "advisors@bank.example"
	fromName   string // e.g. "Your Advisory Team"
	endpoint   string
	httpClient *http.Client
}

// NewResendClient returns a Sender that delivers email via Resend. An empty
// endpoint means DefaultResendEndpoint.
func NewResendClient(apiKey, fromAddr, fromName, endpoint string) Sender {
	if endpoint == "" {
		endpoint = DefaultResendEndpoint
	}
	return &resendClient{
		apiKey:   apiKey,
		fromAddr: fromAddr,
		fromName: fromName,
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// ─── RESEND API SHAPES ────────────────────────────────────────────────────────

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text"`
}

type resendResponse struct {
	ID    string `json:"id"`
	Error *struct {
		Name       string `json:"name"`
		Message    string `json:"message"`
		StatusCode int    `json:"statusCode"`
	} `json:"error"`
}

// ─── SENDER IMPLEMENTATION ────────────────────────────────────────────────────

// SendOutreach sends the draft as both plain text and minimal HTML.
func (c *resendClient) SendOutreach(ctx context.Context, p OutreachParams) (string, error) {
	if strings.TrimSpace(p.To) == "" {
		return "", fmt.Errorf("email: missing recipient")
	}
	subject := p.Subject
	if subject == "" {
		subject = defaultSubject(p.ProductName)
	}
	return c.send(ctx, p.To, subject, outreachHTML(p.Body), p.Body)
}

func defaultSubject(product string) string {
	if product == "" {
		return "A suggestion from your advisor"
	}
	return fmt.Sprintf("A suggestion from your advisor: %s", product)
}

// ─── HTTP SEND ────────────────────────────────────────────────────────────────

func (c *resendClient) send(ctx context.Context, to, subject, htmlBody, text string) (string, error) {
	from := fmt.Sprintf("%s <%s>", c.fromName, c.fromAddr)

	bodyBytes, err := json.Marshal(resendRequest{
		From:    from,
		To:      []string{to},
		Subject: subject,
		HTML:    htmlBody,
		Text:    text,
	})
	if err != nil {
		return "", fmt.Errorf("email: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("email: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("email: http request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return "", fmt.Errorf("email: read response: %w", err)
	}

	var parsed resendResponse
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return "", fmt.Errorf("email: unmarshal response (status %d): %w", resp.StatusCode, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("email: Resend error %s: %s", parsed.Error.Name, parsed.Error.Message)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("email: unexpected status %d: %.200s", resp.StatusCode, string(respBytes))
	}
	return parsed.ID, nil
}

// ─── HTML TEMPLATE ────────────────────────────────────────────────────────────

// outreachHTML wraps the plain-text draft, one <p> per paragraph.
func outreachHTML(body string) string {
	var paras strings.Builder
	for _, p := range strings.Split(strings.TrimSpace(body), "\n\n") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		escaped := strings.ReplaceAll(html.EscapeString(p), "\n", "<br>")
		fmt.Fprintf(&paras, "  <p>%s</p>\n", escaped)
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: sans-serif; color: #1a1a1a; max-width: 560px; margin: 0 auto; padding: 24px;">
%s</body>
</html>`, paras.String())
}
